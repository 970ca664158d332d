package adaptor

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ponyo877/livetalk/server/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024
	eventBuffer    = 256
)

// wsRequest is a client-to-server frame. Type selects which fields matter:
// "join" carries Identity, "send_message" carries From/To/Text.
type wsRequest struct {
	Type     string `json:"type"`
	Identity string `json:"identity,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Text     string `json:"text,omitempty"`
}

// WSHandler upgrades HTTP requests to WebSocket connections and bridges them
// to the presence and relay usecases. Each connection gets its own handle;
// the registry decides which handle is current for an identity.
type WSHandler struct {
	presence PresenceUsecase
	relay    RelayUsecase
	upgrader websocket.Upgrader
}

func NewWSHandler(presence PresenceUsecase, relay RelayUsecase, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return &WSHandler{
		presence: presence,
		relay:    relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := domain.NewConn(uuid.NewString(), r.RemoteAddr, eventBuffer)
	slog.Debug("websocket connected", "conn", conn.ID(), "remote", conn.Remote())

	go h.writePump(socket, conn)
	h.readLoop(socket, conn)
}

// readLoop drives the connection lifecycle: join, sends, and finally the
// disconnect transition when the socket closes for any reason.
func (h *WSHandler) readLoop(socket *websocket.Conn, conn *domain.Conn) {
	var identity domain.Identity

	defer func() {
		if identity != "" {
			h.presence.Disconnect(identity, conn)
		}
		conn.Close()
		socket.Close()
	}()

	socket.SetReadLimit(maxMessageSize)
	if err := socket.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn("failed to set read deadline", "conn", conn.ID(), "error", err)
	}
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket read failed", "conn", conn.ID(), "error", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			slog.Warn("invalid frame", "conn", conn.ID(), "error", err)
			continue
		}

		switch req.Type {
		case "join":
			joined, err := h.presence.Join(req.Identity, conn)
			if err != nil {
				slog.Warn("join rejected", "conn", conn.ID(), "error", err)
				continue
			}
			identity = joined
		case "send_message":
			if _, err := h.relay.Send(req.From, req.To, req.Text); err != nil {
				slog.Warn("send rejected", "conn", conn.ID(), "error", err)
			}
		default:
			slog.Warn("unknown frame type", "conn", conn.ID(), "type", req.Type)
		}
	}
}

// writePump drains the handle's event stream onto the socket and keeps the
// connection alive with pings. It exits when the handle is closed.
func (h *WSHandler) writePump(socket *websocket.Conn, conn *domain.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		socket.Close()
	}()

	for {
		select {
		case event, ok := <-conn.Events():
			if err := socket.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := socket.WriteJSON(event); err != nil {
				slog.Debug("websocket write failed", "conn", conn.ID(), "error", err)
				return
			}
		case <-ticker.C:
			if err := socket.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
