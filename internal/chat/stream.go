package chat

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fieldservice/internal/api"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// frame is what the stream writes: one history frame first, then one frame per event.
type frame struct {
	Type     string    `json:"type"`
	Messages []Message `json:"messages,omitempty"`
	Event    *Event    `json:"event,omitempty"`
}

// Stream serves GET /channels/{id}/stream as a websocket. The subscription lives exactly as long
// as the connection.
type Stream struct {
	Repo     Store
	Broker   Broker
	Log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewStream(repo Store, broker Broker, log *zap.Logger, allowedOrigins []string) *Stream {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Stream{
		Repo:   repo,
		Broker: broker,
		Log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "id")
	ok, err := s.Repo.ChannelExists(r.Context(), channelID)
	if err != nil {
		s.Log.Error("chat stream channel lookup", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if !ok {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "channel not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.Log.Debug("chat stream upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Subscribe before reading history so nothing posted in between is lost.
	events, unsubscribe, err := s.Broker.Subscribe(ctx, channelID)
	if err != nil {
		s.Log.Error("chat stream subscribe", zap.Error(err))
		return
	}
	defer unsubscribe()

	history, err := s.Repo.ListMessages(ctx, channelID)
	if err != nil {
		s.Log.Error("chat stream history", zap.Error(err))
		return
	}
	if history == nil {
		history = []Message{}
	}
	if err := s.write(conn, frame{Type: "history", Messages: history}); err != nil {
		return
	}

	go s.readUntilClosed(conn, cancel)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := s.write(conn, frame{Type: "event", Event: &ev}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Stream) write(conn *websocket.Conn, f frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}

// readUntilClosed drains client frames so pongs and the close handshake are processed, and
// cancels the stream when the client goes away.
func (s *Stream) readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
