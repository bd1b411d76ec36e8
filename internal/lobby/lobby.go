package lobby

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DoyleJ11/debate-room-backend/internal/engine"
	"github.com/DoyleJ11/debate-room-backend/internal/metrics"
	"github.com/DoyleJ11/debate-room-backend/internal/store"
)

var ErrClosed = errors.New("lobby closed")

type Msg interface{ isLobbyMsg() }

// FromClient carries a turn command for the engine.
type FromClient struct {
	Cmd   engine.Command
	Reply chan CommandResult
}

func (FromClient) isLobbyMsg() {}

// Join registers a snapshot watcher.
type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type TakeSeat struct {
	UserID   string
	Role     engine.Role
	Passcode string
	Reply    chan error
}

func (TakeSeat) isLobbyMsg() {}

type LeaveSeat struct {
	UserID string
	Reply  chan error
}

func (LeaveSeat) isLobbyMsg() {}

type SetReady struct {
	UserID string
	Ready  bool
	Reply  chan error
}

func (SetReady) isLobbyMsg() {}

type SetMotion struct {
	CallerID string
	Motion   string
	Reply    chan error
}

func (SetMotion) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type CommandResult struct {
	Outcome engine.Outcome
	Err     error
}

type Snapshot struct {
	Version int
	Room    engine.Room
	Roster  []engine.Participant
}

type View struct {
	Version    int
	NumClients int
	Room       engine.Room
	Roster     []engine.Participant
	Err        error
}

type Options struct {
	Store     store.Store
	Format    []engine.Slot
	Log       *zap.Logger
	InboxSize int
	Now       func() time.Time
	// Linger is how long a closed room's lobby stays up after its last message.
	Linger time.Duration
	// OnRetire runs on the lobby goroutine once a closed room's lobby has
	// stopped. It must not block on the lobby.
	OnRetire func(*Lobby)
}

// Lobby is the single writer for one room. Everything that changes the room
// or its roster goes through its inbox.
type Lobby struct {
	id      string
	inbox   chan Msg
	store   store.Store
	format  []engine.Slot
	log     *zap.Logger
	now     func() time.Time
	linger  time.Duration
	retire  func(*Lobby)
	closed  bool // last loaded room can no longer change
	version int
	clients map[string]chan Snapshot
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewLobby(parent context.Context, roomID string, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	if opts.InboxSize <= 0 {
		opts.InboxSize = 64
	}
	if opts.Format == nil {
		opts.Format = engine.DebateFormat()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Linger <= 0 {
		opts.Linger = 30 * time.Second
	}

	l := &Lobby{
		id:      roomID,
		inbox:   make(chan Msg, opts.InboxSize),
		store:   opts.Store,
		format:  opts.Format,
		log:     opts.Log.With(zap.String("room_id", roomID)),
		now:     opts.Now,
		linger:  opts.Linger,
		retire:  opts.OnRetire,
		clients: make(map[string]chan Snapshot),
		ctx:     ctx,
		cancel:  cancel,
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	var idle <-chan time.Time
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case <-idle:
			l.log.Info("room closed, retiring lobby")
			l.shutdown()
			if l.retire != nil {
				l.retire(l)
			}
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				snap, err := l.snapshot()
				if err != nil {
					l.log.Warn("watcher join failed", zap.String("client_id", msg.ClientID), zap.Error(err))
					close(msg.Outbox)
					break
				}
				l.clients[msg.ClientID] = msg.Outbox
				metrics.Watchers.Inc()
				msg.Outbox <- snap

			case Leave:
				if _, ok := l.clients[msg.ClientID]; ok {
					delete(l.clients, msg.ClientID)
					metrics.Watchers.Dec()
				}

			case FromClient:
				outcome, err := l.applyCommand(msg.Cmd)
				l.record(string(msg.Cmd.Type), err)
				reply(msg.Reply, CommandResult{Outcome: outcome, Err: err})

			case TakeSeat:
				err := l.takeSeat(msg)
				l.record("TakeSeat", err)
				reply(msg.Reply, err)

			case LeaveSeat:
				err := l.rosterChange(func() error {
					return l.store.RemoveParticipant(l.ctx, l.id, msg.UserID)
				})
				l.record("LeaveSeat", err)
				reply(msg.Reply, err)

			case SetReady:
				err := l.rosterChange(func() error {
					return l.store.SetReady(l.ctx, l.id, msg.UserID, msg.Ready)
				})
				l.record("SetReady", err)
				reply(msg.Reply, err)

			case SetMotion:
				err := l.setMotion(msg)
				l.record("SetMotion", err)
				reply(msg.Reply, err)

			case GetState:
				// reflect internal state without data races
				snap, err := l.snapshot()
				reply(msg.Reply, View{
					Version:    l.version,
					NumClients: len(l.clients),
					Room:       snap.Room,
					Roster:     snap.Roster,
					Err:        err,
				})

			case Shutdown:
				l.shutdown()
				return
			}

			idle = nil
			if l.closed {
				idle = time.After(l.linger)
			}
		}
	}
}

// reply answers a request without ever blocking the actor. Reply channels
// need room for one value; a nil channel gets no answer.
func reply[T any](ch chan T, v T) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
	}
}

// room loads the room and remembers whether it is closed.
func (l *Lobby) room() (engine.Room, error) {
	room, err := l.store.GetRoom(l.ctx, l.id)
	if err != nil {
		return engine.Room{}, err
	}
	l.closed = room.Closed()
	return room, nil
}

func (l *Lobby) applyCommand(cmd engine.Command) (engine.Outcome, error) {
	room, err := l.room()
	if err != nil {
		return engine.Outcome{}, err
	}
	roster, err := l.store.GetParticipants(l.ctx, l.id)
	if err != nil {
		return engine.Outcome{}, err
	}
	if cmd.At.IsZero() {
		cmd.At = l.now()
	}

	events, next, err := engine.Apply(l.format, room, roster, cmd)
	if err != nil {
		return engine.Outcome{}, err
	}
	if err := l.store.UpdateTurnState(l.ctx, l.id, room.TurnState, next.TurnState); err != nil {
		l.log.Error("persist turn state", zap.String("command", string(cmd.Type)), zap.Error(err))
		return engine.Outcome{}, err
	}

	var outcome engine.Outcome
	for _, event := range events {
		switch event.Type {
		case engine.EvtDebateStarted:
			metrics.DebatesStarted.Inc()
			l.log.Info("debate started", zap.String("motion", room.Motion), zap.Int("participants", len(roster)))
		case engine.EvtSpeakerChanged:
			metrics.SpeakerAdvances.WithLabelValues(string(event.Role)).Inc()
			l.log.Info("speaker changed", zap.String("role", string(event.Role)), zap.Int("slot", event.Slot))
			slot := event.Slot
			outcome.NextSlot = &slot
		case engine.EvtDebateCompleted:
			metrics.DebatesCompleted.Inc()
			l.log.Info("debate completed")
			outcome.Completed = true
		case engine.EvtDebateCancelled:
			metrics.DebatesCancelled.Inc()
			l.log.Info("debate cancelled")
		}
	}

	l.closed = next.Closed()
	l.publish(next, roster)
	return outcome, nil
}

func (l *Lobby) takeSeat(msg TakeSeat) error {
	room, err := l.room()
	if err != nil {
		return err
	}
	if room.Status != engine.StatusWaiting {
		return engine.ErrRosterFrozen
	}
	if !msg.Role.Joinable() {
		return engine.ErrRoleNotJoinable
	}
	if room.PasscodeHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(room.PasscodeHash), []byte(msg.Passcode)); err != nil {
			return engine.ErrBadPasscode
		}
	}
	if err := l.store.AddParticipant(l.ctx, l.id, engine.Participant{UserID: msg.UserID, Role: msg.Role}); err != nil {
		return err
	}
	l.log.Debug("seat taken", zap.String("user_id", msg.UserID), zap.String("role", string(msg.Role)))
	return l.republish(room)
}

// rosterChange runs change if the roster is still open and publishes the result.
func (l *Lobby) rosterChange(change func() error) error {
	room, err := l.room()
	if err != nil {
		return err
	}
	if room.Status != engine.StatusWaiting {
		return engine.ErrRosterFrozen
	}
	if err := change(); err != nil {
		return err
	}
	return l.republish(room)
}

func (l *Lobby) setMotion(msg SetMotion) error {
	room, err := l.room()
	if err != nil {
		return err
	}
	if msg.CallerID != room.CreatorID {
		return engine.ErrNotCreator
	}
	if room.Status != engine.StatusWaiting {
		return engine.ErrAlreadyStarted
	}
	motion := strings.TrimSpace(msg.Motion)
	if motion == "" {
		return engine.ErrNoMotion
	}
	if err := l.store.SetMotion(l.ctx, l.id, motion); err != nil {
		return err
	}
	room.Motion = motion
	return l.republish(room)
}

func (l *Lobby) republish(room engine.Room) error {
	roster, err := l.store.GetParticipants(l.ctx, l.id)
	if err != nil {
		l.log.Error("reload roster", zap.Error(err))
		return nil // the change itself went through
	}
	l.publish(room, roster)
	return nil
}

func (l *Lobby) publish(room engine.Room, roster []engine.Participant) {
	l.version++
	l.broadcast(Snapshot{Version: l.version, Room: room, Roster: roster})
}

func (l *Lobby) snapshot() (Snapshot, error) {
	room, err := l.room()
	if err != nil {
		return Snapshot{}, err
	}
	roster, err := l.store.GetParticipants(l.ctx, l.id)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Version: l.version, Room: room, Roster: roster}, nil
}

func (l *Lobby) record(op string, err error) {
	metrics.LobbyCommands.WithLabelValues(op, metrics.Result(err)).Inc()
	if err != nil {
		l.log.Debug("command rejected", zap.String("op", op), zap.Error(err))
	}
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
		metrics.Watchers.Dec()
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(l.clients, id)
			metrics.Watchers.Dec()
		}
	}
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) ID() string { return l.id }

// Done is closed once the lobby has shut down.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }
