package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/debate-room-backend/internal/lobby"
	"github.com/DoyleJ11/debate-room-backend/internal/store"
)

type HubMsg interface{ isHubMsg() }

type GetLobby struct {
	RoomID string
	Reply  chan *lobby.Lobby
}

// EnsureLobby returns the room's lobby, starting one if needed.
type EnsureLobby struct {
	RoomID string
	Reply  chan *lobby.Lobby
}

// RemoveLobby stops and forgets a room's lobby. When Lobby is set, only that
// instance is removed.
type RemoveLobby struct {
	RoomID string
	Lobby  *lobby.Lobby
}

type ShutdownHub struct{}

func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	store   store.Store
	opts    lobby.Options
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewHub starts the hub loop. opts is the template every lobby is built from.
func NewHub(parent context.Context, opts lobby.Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	log := opts.Log
	opts.Log = log.Named("lobby")
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		store:   opts.Store,
		opts:    opts,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	h.opts.OnRetire = h.retired
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Store() store.Store { return h.store }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetLobby:
				msg.Reply <- h.lobbies[msg.RoomID] // May be nil

			case EnsureLobby:
				if lb := h.lobbies[msg.RoomID]; lb != nil && !stopped(lb) {
					msg.Reply <- lb
					break
				}
				lb := lobby.NewLobby(h.ctx, msg.RoomID, h.opts)
				h.lobbies[msg.RoomID] = lb
				h.log.Debug("lobby started", zap.String("room_id", msg.RoomID))
				msg.Reply <- lb

			case RemoveLobby:
				lb := h.lobbies[msg.RoomID]
				if lb == nil || (msg.Lobby != nil && msg.Lobby != lb) {
					break
				}
				select {
				case lb.Inbox() <- lobby.Shutdown{}:
				case <-lb.Done():
				}
				delete(h.lobbies, msg.RoomID)
				h.log.Debug("lobby removed", zap.String("room_id", msg.RoomID))

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// retired runs on a lobby goroutine after it stopped itself.
func (h *Hub) retired(lb *lobby.Lobby) {
	select {
	case h.inbox <- RemoveLobby{RoomID: lb.ID(), Lobby: lb}:
	case <-h.ctx.Done():
	}
}

func stopped(lb *lobby.Lobby) bool {
	select {
	case <-lb.Done():
		return true
	default:
		return false
	}
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		select {
		case lb.Inbox() <- lobby.Shutdown{}:
		case <-lb.Done():
		}
	}
	clear(h.lobbies)
	h.cancel()
}

// Lobby returns the lobby for an existing room. Unknown rooms get the store's
// not-found error and no lobby is started for them.
func (h *Hub) Lobby(ctx context.Context, roomID string) (*lobby.Lobby, error) {
	if _, err := h.store.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	reply := make(chan *lobby.Lobby, 1)
	select {
	case h.inbox <- EnsureLobby{RoomID: roomID, Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.ctx.Done():
		return nil, lobby.ErrClosed
	}
	select {
	case lb := <-reply:
		return lb, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.ctx.Done():
		return nil, lobby.ErrClosed
	}
}
