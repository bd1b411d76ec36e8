package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/DoyleJ11/debate-room-backend/internal/engine"
)

type Memory struct {
	mu      sync.RWMutex
	rooms   map[string]engine.Room
	rosters map[string][]engine.Participant // join order
}

func NewMemory() *Memory {
	return &Memory{
		rooms:   make(map[string]engine.Room),
		rosters: make(map[string][]engine.Participant),
	}
}

func (m *Memory) CreateRoom(_ context.Context, room engine.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.ID]; ok {
		return fmt.Errorf("create room %s: already exists", room.ID)
	}
	m.rooms[room.ID] = room
	m.rosters[room.ID] = []engine.Participant{}
	return nil
}

func (m *Memory) GetRoom(_ context.Context, id string) (engine.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	if !ok {
		return engine.Room{}, engine.ErrRoomNotFound
	}
	return room, nil
}

func (m *Memory) SetMotion(_ context.Context, id, motion string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return engine.ErrRoomNotFound
	}
	room.Motion = motion
	m.rooms[id] = room
	return nil
}

func (m *Memory) UpdateTurnState(_ context.Context, id string, prev, next engine.TurnState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return engine.ErrRoomNotFound
	}
	if !sameTurn(room.TurnState, prev) {
		return ErrStaleTurn
	}
	room.TurnState = next
	m.rooms[id] = room
	return nil
}

func (m *Memory) GetParticipants(_ context.Context, roomID string) ([]engine.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roster, ok := m.rosters[roomID]
	if !ok {
		return nil, engine.ErrRoomNotFound
	}
	out := make([]engine.Participant, len(roster))
	copy(out, roster)
	return out, nil
}

func (m *Memory) AddParticipant(_ context.Context, roomID string, p engine.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	roster, ok := m.rosters[roomID]
	if !ok {
		return engine.ErrRoomNotFound
	}
	for _, existing := range roster {
		if existing.Role == p.Role {
			return engine.ErrRoleTaken
		}
		if existing.UserID == p.UserID {
			return engine.ErrAlreadySeated
		}
	}
	m.rosters[roomID] = append(roster, p)
	return nil
}

func (m *Memory) RemoveParticipant(_ context.Context, roomID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	roster, ok := m.rosters[roomID]
	if !ok {
		return engine.ErrRoomNotFound
	}
	for i, p := range roster {
		if p.UserID == userID {
			m.rosters[roomID] = append(roster[:i:i], roster[i+1:]...)
			return nil
		}
	}
	return engine.ErrParticipantNotFound
}

func (m *Memory) SetReady(_ context.Context, roomID, userID string, ready bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	roster, ok := m.rosters[roomID]
	if !ok {
		return engine.ErrRoomNotFound
	}
	for i := range roster {
		if roster[i].UserID == userID {
			roster[i].IsReady = ready
			return nil
		}
	}
	return engine.ErrParticipantNotFound
}

func (m *Memory) Close() error { return nil }
