package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/abhikumar45444/movie-night-decider/internal/hub"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// MemberSvc is the slice of the member service the gateway needs to
// admit a connection and keep its liveness timestamp fresh.
type MemberSvc interface {
	Exists(ctx context.Context, roomCode, userID string) (bool, error)
	TouchHeartbeat(ctx context.Context, roomCode, userID string) error
}

// Gateway binds websocket connections to room subscriptions. Outbound
// events are produced by the hub; the gateway only pumps them onto the
// wire and feeds inbound vote frames back into the hub.
type Gateway struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
	members  MemberSvc

	pingEvery time.Duration
}

func NewGateway(h *hub.Hub, members MemberSvc) *Gateway {
	return &Gateway{
		hub:     h,
		members: members,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws/{roomCode}/{userID}
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomCode := strings.ToUpper(chi.URLParam(r, "roomCode"))
	userID := chi.URLParam(r, "userID")
	if roomCode == "" || userID == "" {
		http.Error(w, "missing room code or user id", http.StatusBadRequest)
		return
	}

	ok, err := g.members.Exists(r.Context(), roomCode, userID)
	if err != nil {
		slog.Error("ws membership check failed", "room", roomCode, "user", userID, "err", err)
		http.Error(w, "membership check failed", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "unknown room or user", http.StatusForbidden)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	sub, err := g.hub.Subscribe(r.Context(), roomCode, userID)
	if err != nil {
		slog.Warn("ws subscribe failed", "room", roomCode, "user", userID, "err", err)
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	go g.writeLoop(conn, sub)
	g.readLoop(r.Context(), conn, sub)

	// A dropped connection counts as a leave: a participant with a dead
	// channel can never vote YES, so keeping them would block matches
	// for everyone else.
	g.hub.Unsubscribe(sub)
	if err := g.hub.Leave(r.Context(), roomCode, userID); err != nil {
		slog.Debug("ws leave failed", "room", roomCode, "user", userID, "err", err)
	}

	if err := conn.Close(); err != nil {
		slog.Debug("ws close failed", "room", roomCode, "user", userID, "err", err)
	}
}

// readLoop consumes inbound frames until the peer goes away. The read
// deadline is refreshed on every pong, so a silent peer is detected
// within two ping intervals.
func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, sub *hub.Subscriber) {
	roomCode, userID := sub.RoomCode(), sub.UserID()

	_ = g.members.TouchHeartbeat(ctx, roomCode, userID)

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(2 * g.pingEvery))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(2 * g.pingEvery))
		_ = g.members.TouchHeartbeat(ctx, roomCode, userID)
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case FrameVote:
			if frame.MovieID <= 0 || (frame.Vote != 0 && frame.Vote != 1) {
				continue
			}
			if _, err := g.hub.Vote(ctx, roomCode, userID, frame.MovieID, frame.Vote == 1); err != nil {
				slog.Debug("ws vote failed", "room", roomCode, "user", userID, "err", err)
			}
		case FrameLeave:
			return
		default:
			// ignore
		}
	}
}

// writeLoop owns all writes on the connection. It drains the
// subscription channel and pings the peer; it exits when the hub
// closes the subscription or a write fails.
func (g *Gateway) writeLoop(conn *websocket.Conn, sub *hub.Subscriber) {
	ticker := time.NewTicker(g.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-sub.Events():
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
