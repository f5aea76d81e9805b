// Package discovery maintains the live nearby-students view: a continuously
// updated candidate list re-evaluated whenever the user directory changes.
package discovery

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/GraceTang323/LinkedUp/internal/apperrors"
	"github.com/GraceTang323/LinkedUp/internal/cache"
	"github.com/GraceTang323/LinkedUp/internal/db"
	"github.com/GraceTang323/LinkedUp/internal/subscription"
)

// Candidate is a nearby user eligible to appear in someone's discovery feed.
// Records lacking a display name or a location never become candidates.
type Candidate struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	Major    string `json:"major"`
	Bio      string `json:"bio"`
	Location LatLng `json:"location"`
}

// Feed produces live candidate lists. Directory changes are signalled over
// the cache's pub/sub topic; every signal triggers a fresh full re-query, so
// each emission is a complete replacement list, never a delta.
type Feed struct {
	db    *gorm.DB
	cache *cache.RedisCache
	log   *slog.Logger
}

func NewFeed(database *gorm.DB, c *cache.RedisCache, log *slog.Logger) *Feed {
	return &Feed{db: database, cache: c, log: log}
}

// SubscribeNearby opens a live stream of the full current candidate list for
// a caller. The caller's own uid is always excluded. The first snapshot is
// queried synchronously so an unreachable store fails the call instead of
// the stream.
//
// The pub/sub listener is registered before the initial query: a mutation
// committed while the query runs leaves its wakeup queued, so the next
// emission picks it up instead of losing it.
//
// Cancelling the returned stream releases the underlying pub/sub listener;
// a store error after that point closes the stream with the error rather
// than emitting an empty list.
func (f *Feed) SubscribeNearby(ctx context.Context, excludeUID string) (*subscription.Stream[[]Candidate], error) {
	if excludeUID == "" {
		return nil, apperrors.NotAuthenticated("subscribe nearby")
	}

	sub := f.cache.Subscribe(ctx, cache.TopicDirectoryChanged)

	first, err := f.queryCandidates(ctx, excludeUID)
	if err != nil {
		if cerr := sub.Close(); cerr != nil {
			f.log.Warn("failed to close directory listener", "err", cerr)
		}
		return nil, err
	}

	stream := subscription.New[[]Candidate]()
	stream.Emit(first)

	go func() {
		defer stream.Close()
		defer func() {
			if err := sub.Close(); err != nil {
				f.log.Warn("failed to close directory listener", "err", err)
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
					stream.Fail(apperrors.Repository("directory listener", redis.ErrClosed))
					return
				}
				list, err := f.queryCandidates(ctx, excludeUID)
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

// queryCandidates loads the complete current candidate list. Filtered out:
// the caller, records without a name, records without a location, and users
// who turned location visibility off.
func (f *Feed) queryCandidates(ctx context.Context, excludeUID string) ([]Candidate, error) {
	var users []db.User
	err := f.db.WithContext(ctx).
		Where("uid <> ?", excludeUID).
		Where("name <> ''").
		Where("lat IS NOT NULL AND lng IS NOT NULL").
		Where("location_visible = ?", true).
		Order("uid ASC").
		Find(&users).Error
	if err != nil {
		return nil, apperrors.Repository("load nearby candidates", err)
	}

	candidates := make([]Candidate, 0, len(users))
	for _, u := range users {
		candidates = append(candidates, Candidate{
			UID:      u.UID,
			Name:     u.Name,
			Major:    u.Major,
			Bio:      u.Bio,
			Location: LatLng{Lat: *u.Lat, Lng: *u.Lng},
		})
	}
	return candidates, nil
}

// SaveLocation upserts the caller's own location and wakes all nearby
// subscriptions.
func (f *Feed) SaveLocation(ctx context.Context, uid string, loc LatLng) error {
	if uid == "" {
		return apperrors.NotAuthenticated("save location")
	}

	err := f.db.WithContext(ctx).
		Model(&db.User{}).
		Where("uid = ?", uid).
		Updates(map[string]interface{}{"lat": loc.Lat, "lng": loc.Lng}).Error
	if err != nil {
		return apperrors.Repository("save location", err)
	}

	if err := f.cache.Publish(ctx, cache.TopicDirectoryChanged); err != nil {
		f.log.Warn("failed to publish directory change", "uid", uid, "err", err)
	}
	return nil
}

// LoadLocation reads the caller's stored location, nil when absent.
func (f *Feed) LoadLocation(ctx context.Context, uid string) (*LatLng, error) {
	if uid == "" {
		return nil, apperrors.NotAuthenticated("load location")
	}

	var user db.User
	err := f.db.WithContext(ctx).Select("lat", "lng").First(&user, "uid = ?", uid).Error
	if err != nil {
		return nil, apperrors.Repository("load location", err)
	}
	if user.Lat == nil || user.Lng == nil {
		return nil, nil
	}
	return &LatLng{Lat: *user.Lat, Lng: *user.Lng}, nil
}
