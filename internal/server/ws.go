package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/GraceTang323/LinkedUp/internal/subscription"
)

// Upgrader shared by all websocket endpoints. Origin checking is delegated
// to the CORS layer, which is wide open here.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServeStream pumps a live subscription over a websocket connection: every
// snapshot is written as one JSON message. The peer closing the socket
// cancels the subscription; the subscription failing closes the socket with
// the error text.
func ServeStream[T any](conn *websocket.Conn, stream *subscription.Stream[T], log *slog.Logger) {
	defer conn.Close()
	defer stream.Cancel()

	// read pump exists only to detect the peer going away
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				stream.Cancel()
				return
			}
		}
	}()

	for snapshot := range stream.C() {
		if err := conn.WriteJSON(snapshot); err != nil {
			return
		}
	}

	if err := stream.Err(); err != nil {
		log.Warn("live stream closed with error", "err", err)
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
		_ = conn.WriteMessage(websocket.CloseMessage, msg)
	} else {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteMessage(websocket.CloseMessage, msg)
	}
}
