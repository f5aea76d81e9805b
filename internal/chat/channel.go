// Package chat is the per-match messaging channel: deterministic room ids,
// an append-only ordered message log, and live room subscriptions.
package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/GraceTang323/LinkedUp/internal/apperrors"
	"github.com/GraceTang323/LinkedUp/internal/cache"
	"github.com/GraceTang323/LinkedUp/internal/db"
	"github.com/GraceTang323/LinkedUp/internal/subscription"
	"github.com/GraceTang323/LinkedUp/internal/utils/pagination"
)

// RoomID derives the chat room id for a pair of users: the two uids in
// lexicographic order joined by "_", so RoomID(a,b) == RoomID(b,a).
func RoomID(a, b string) string {
	if a <= b {
		return a + "_" + b
	}
	return b + "_" + a
}

// Message is one entry in a room's log. SentAt is assigned server-side on
// append; client clocks are never trusted for ordering.
type Message struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sent_at"`
}

// Channel provides message append and live room subscriptions on top of the
// store, with room-change wakeups over the cache's pub/sub.
type Channel struct {
	db    *gorm.DB
	cache *cache.RedisCache
	log   *slog.Logger
}

func NewChannel(database *gorm.DB, c *cache.RedisCache, log *slog.Logger) *Channel {
	return &Channel{db: database, cache: c, log: log}
}

// SendMessage appends a message to the room. The room springs into
// existence on first send; there is no separate create step.
func (c *Channel) SendMessage(ctx context.Context, roomID, senderID, senderName, text string) (*Message, error) {
	if senderID == "" {
		return nil, apperrors.NotAuthenticated("send message")
	}
	if roomID == "" {
		return nil, apperrors.InvalidArgument("room id must not be empty")
	}
	if text == "" {
		return nil, apperrors.InvalidArgument("message text must not be empty")
	}

	row := db.ChatMessage{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
	}
	if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, apperrors.Repository("append message", err)
	}

	if err := c.cache.Publish(ctx, cache.TopicRoom(roomID)); err != nil {
		c.log.Warn("failed to publish room change", "room_id", roomID, "err", err)
	}

	msg := toMessage(row)
	return &msg, nil
}

// SubscribeMessages opens a live stream of the room's full message list,
// ascending by server timestamp, re-delivered on every change to the room.
// Cancelling releases the pub/sub listener.
//
// The listener is registered before the initial load so a message appended
// while the load runs leaves its wakeup queued rather than being lost.
func (c *Channel) SubscribeMessages(ctx context.Context, roomID string) (*subscription.Stream[[]Message], error) {
	if roomID == "" {
		return nil, apperrors.InvalidArgument("room id must not be empty")
	}

	sub := c.cache.Subscribe(ctx, cache.TopicRoom(roomID))

	first, err := c.loadAll(ctx, roomID)
	if err != nil {
		if cerr := sub.Close(); cerr != nil {
			c.log.Warn("failed to close room listener", "room_id", roomID, "err", cerr)
		}
		return nil, err
	}

	stream := subscription.New[[]Message]()
	stream.Emit(first)

	go func() {
		defer stream.Close()
		defer func() {
			if err := sub.Close(); err != nil {
				c.log.Warn("failed to close room listener", "room_id", roomID, "err", err)
			}
		}()

		wakeups := sub.Channel()
		for {
			select {
			case <-stream.Done():
				return
			case <-ctx.Done():
				stream.Fail(ctx.Err())
				return
			case _, ok := <-wakeups:
				if !ok {
					stream.Fail(apperrors.Repository("room listener", redis.ErrClosed))
					return
				}
				list, err := c.loadAll(ctx, roomID)
				if err != nil {
					stream.Fail(err)
					return
				}
				if !stream.Emit(list) {
					return
				}
			}
		}
	}()

	return stream, nil
}

// History returns a page of the room's messages, newest first, with a
// cursor token for the next page.
//
// Behavior:
//   - Ordered by sent_at DESC, seq DESC.
//   - Fetches limit+1 rows to decide whether a next page exists.
//   - Empty token → first (newest) page.
func (c *Channel) History(
	ctx context.Context,
	roomID string,
	paginationToken *string,
	limit int,
) ([]Message, *string, error) {
	if roomID == "" {
		return nil, nil, apperrors.InvalidArgument("room id must not be empty")
	}
	if limit <= 0 {
		limit = 50
	}

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, apperrors.InvalidArgument(err.Error())
	}

	query := c.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("sent_at DESC, seq DESC").
		Limit(limit + 1)

	if cursor.Seq > 0 && cursor.SentUnix > 0 {
		ts := time.UnixMilli(cursor.SentUnix)
		query = query.Where(
			"(sent_at < ? OR (sent_at = ? AND seq < ?))",
			ts, ts, cursor.Seq,
		)
	}

	var rows []db.ChatMessage
	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, apperrors.Repository("load message history", err)
	}

	var nextToken *string
	if len(rows) > limit {
		last := rows[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			Seq:      last.Seq,
			SentUnix: last.SentAt.UnixMilli(),
		})
		nextToken = &token
		rows = rows[:limit]
	}

	messages := make([]Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, toMessage(row))
	}
	return messages, nextToken, nil
}

// loadAll reads the room's complete log in delivery order.
func (c *Channel) loadAll(ctx context.Context, roomID string) ([]Message, error) {
	var rows []db.ChatMessage
	err := c.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("sent_at ASC, seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Repository("load room messages", err)
	}

	messages := make([]Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, toMessage(row))
	}
	return messages, nil
}

func toMessage(row db.ChatMessage) Message {
	return Message{
		ID:         row.ID,
		RoomID:     row.RoomID,
		SenderID:   row.SenderID,
		SenderName: row.SenderName,
		Text:       row.Text,
		SentAt:     row.SentAt,
	}
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
