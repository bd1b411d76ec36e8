package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/DoyleJ11/debate-room-backend/internal/engine"
	"github.com/DoyleJ11/debate-room-backend/internal/hub"
	"github.com/DoyleJ11/debate-room-backend/internal/lobby"
	"github.com/DoyleJ11/debate-room-backend/internal/types"
)

type Options struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
	Buffer       int
	Format       []engine.Slot
	Log          *zap.Logger
	Now          func() time.Time
}

func (o *Options) defaults() {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.Buffer <= 0 {
		o.Buffer = 8
	}
	if o.Format == nil {
		o.Format = engine.DebateFormat()
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
}

// Handler streams room snapshots to a watcher and accepts turn commands.
// Query: room=<room id>, user=<user id> (needed for commands only).
func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	opts.defaults()

	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		if roomID == "" {
			http.Error(w, "missing room", http.StatusBadRequest)
			return
		}
		userID := r.URL.Query().Get("user")

		lb, err := h.Lobby(r.Context(), roomID)
		if err != nil {
			if errors.Is(err, engine.ErrNotFound) {
				http.Error(w, "room not found", http.StatusNotFound)
				return
			}
			http.Error(w, "room unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		log := opts.Log.With(zap.String("room_id", roomID), zap.String("user_id", userID))
		out := make(chan lobby.Snapshot, opts.Buffer)
		clientID := uuid.NewString()

		select {
		case lb.Inbox() <- lobby.Join{ClientID: clientID, Outbox: out}:
		case <-lb.Done():
			conn.Close(websocket.StatusGoingAway, "room closed")
			return
		}
		defer func() {
			select {
			case lb.Inbox() <- lobby.Leave{ClientID: clientID}:
			case <-lb.Done():
			}
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			ping := time.NewTicker(opts.PingInterval)
			defer ping.Stop()
			for {
				select {
				case snap, ok := <-out:
					if !ok {
						// lobby dropped us or shut down
						conn.Close(websocket.StatusGoingAway, "snapshot stream ended")
						return
					}
					view := types.NewRoomView(opts.Format, snap.Room, snap.Roster, opts.Now())
					view.Version = snap.Version
					msg := types.ServerMessage{Type: "StateSnapshot", Version: snap.Version, State: &view}
					if err := write(writeCtx, conn, opts.WriteTimeout, msg); err != nil {
						log.Debug("snapshot write failed", zap.Error(err))
						conn.Close(websocket.StatusInternalError, "write failed")
						return
					}
				case <-ping.C:
					ctx, cancel := context.WithTimeout(writeCtx, opts.WriteTimeout)
					err := conn.Ping(ctx)
					cancel()
					if err != nil {
						return
					}
				case <-writeCtx.Done():
					return
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				// Treat clean close/going-away as normal:
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				log.Debug("websocket read ended", zap.Error(err))
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = write(r.Context(), conn, opts.WriteTimeout, types.ServerMessage{Type: "Error", Error: "bad json"})
				continue
			}

			if err := dispatch(r.Context(), lb, userID, cm); err != nil {
				_ = write(r.Context(), conn, opts.WriteTimeout, errorMessage(err))
			}
		}
	}
}

var errNoUser = errors.New("user query parameter required for commands")

func dispatch(ctx context.Context, lb *lobby.Lobby, userID string, cm types.ClientMessage) error {
	switch cm.Type {
	case string(engine.CmdAdvanceSpeaker):
		_, err := lb.AdvanceSpeaker(ctx)
		return err
	case string(engine.CmdStartDebate):
		if userID == "" {
			return errNoUser
		}
		return lb.StartDebate(ctx, userID)
	case "SetReady":
		if userID == "" {
			return errNoUser
		}
		return lb.SetReady(ctx, userID, cm.Ready)
	default:
		return engine.ErrUnsupportedCommand
	}
}

func errorMessage(err error) types.ServerMessage {
	return types.ServerMessage{Type: "Error", Error: err.Error(), Kind: engine.KindOf(err)}
}

func write(parent context.Context, conn *websocket.Conn, timeout time.Duration, msg types.ServerMessage) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
