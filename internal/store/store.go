package store

import (
	"context"
	"fmt"

	"github.com/DoyleJ11/debate-room-backend/internal/engine"
)

// ErrStaleTurn means the stored turn state moved on since it was read.
var ErrStaleTurn = fmt.Errorf("%w: turn state changed concurrently", engine.ErrInvalidState)

// Store is the room store and roster provider the lobby works against.
type Store interface {
	CreateRoom(ctx context.Context, room engine.Room) error
	GetRoom(ctx context.Context, id string) (engine.Room, error)
	SetMotion(ctx context.Context, id, motion string) error
	// UpdateTurnState writes next only if the stored status and current slot
	// still match prev.
	UpdateTurnState(ctx context.Context, id string, prev, next engine.TurnState) error

	GetParticipants(ctx context.Context, roomID string) ([]engine.Participant, error)
	AddParticipant(ctx context.Context, roomID string, p engine.Participant) error
	RemoveParticipant(ctx context.Context, roomID, userID string) error
	SetReady(ctx context.Context, roomID, userID string, ready bool) error

	Close() error
}

func sameTurn(a, b engine.TurnState) bool {
	return a.Status == b.Status && a.Phase == b.Phase && a.CurrentSlot == b.CurrentSlot
}
