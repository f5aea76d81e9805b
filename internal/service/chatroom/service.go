package chatroom

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/GraceTang323/LinkedUp/internal/app"
	"github.com/GraceTang323/LinkedUp/internal/apperrors"
	"github.com/GraceTang323/LinkedUp/internal/chat"
	"github.com/GraceTang323/LinkedUp/internal/server"
)

// Service exposes the messaging channel over HTTP: message append, paged
// history, and a websocket that streams the room's full message list on
// every change.
type Service struct {
	appCtx  *app.AppContext
	channel *chat.Channel
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		channel: chat.NewChannel(appCtx.DB, appCtx.RedisCache, appCtx.Logger),
	}
}

type sendRequest struct {
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Text       string `json:"text"`
}

// Send handles POST /rooms/{roomID}/messages: appends a message with a
// server-assigned timestamp and returns the stored record.
func (s *Service) Send(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomID"]

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.InvalidArgument("malformed request body"))
		return
	}

	msg, err := s.channel.SendMessage(r.Context(), roomID, req.SenderID, req.SenderName, req.Text)
	if err != nil {
		s.appCtx.Logger.Error("SendMessage failed", "room_id", roomID, "err", err)
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// History handles GET /rooms/{roomID}/messages?page_token=&limit=: a page of
// the room's log, newest first, with a token for the next page.
func (s *Service) History(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomID"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			apperrors.WriteError(w, apperrors.InvalidArgument("limit must be a positive integer"))
			return
		}
		limit = n
	}

	var token *string
	if raw := r.URL.Query().Get("page_token"); raw != "" {
		token = &raw
	}

	messages, nextToken, err := s.channel.History(r.Context(), roomID, token, limit)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	resp := map[string]interface{}{"messages": messages}
	if nextToken != nil {
		resp["next_page_token"] = *nextToken
	}
	writeJSON(w, http.StatusOK, resp)
}

// Subscribe handles GET /ws/rooms/{roomID}: upgrades to a websocket and
// pushes the room's full ascending message list on every change. Closing the
// socket cancels the subscription.
func (s *Service) Subscribe(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomID"]

	stream, err := s.channel.SubscribeMessages(r.Context(), roomID)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	conn, err := server.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		stream.Cancel()
		s.appCtx.Logger.Error("websocket upgrade failed", "err", err)
		return
	}

	server.ServeStream(conn, stream, s.appCtx.Logger)
}

// Register attaches the messaging endpoints to the router.
func (s *Service) Register(r *mux.Router) {
	r.HandleFunc("/rooms/{roomID}/messages", s.Send).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{roomID}/messages", s.History).Methods(http.MethodGet)
	r.HandleFunc("/ws/rooms/{roomID}", s.Subscribe).Methods(http.MethodGet)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
