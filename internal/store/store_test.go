package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/debate-room-backend/internal/engine"
)

// stores returns every implementation under test. Postgres only joins when
// TEST_DATABASE_URL points at a scratch database.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	out := map[string]Store{"memory": NewMemory()}
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		pg, err := OpenPostgres(dsn, true, zap.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = pg.Close() })
		out["postgres"] = pg
	}
	return out
}

func newRoom() engine.Room {
	return engine.Room{
		ID:        uuid.NewString(),
		CreatorID: "creator",
		Motion:    "This house regrets social media",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		TurnState: engine.NewTurnState(),
	}
}

func TestStore_RoomLifecycle(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			room := newRoom()
			require.NoError(t, st.CreateRoom(ctx, room))

			got, err := st.GetRoom(ctx, room.ID)
			require.NoError(t, err)
			assert.Equal(t, room.CreatorID, got.CreatorID)
			assert.Equal(t, engine.StatusWaiting, got.Status)
			assert.Equal(t, engine.PhaseSetup, got.Phase)

			require.NoError(t, st.SetMotion(ctx, room.ID, "This house would abolish zoos"))
			got, err = st.GetRoom(ctx, room.ID)
			require.NoError(t, err)
			assert.Equal(t, "This house would abolish zoos", got.Motion)

			_, err = st.GetRoom(ctx, uuid.NewString())
			assert.ErrorIs(t, err, engine.ErrNotFound)
			assert.ErrorIs(t, st.SetMotion(ctx, uuid.NewString(), "x"), engine.ErrNotFound)
		})
	}
}

func TestStore_UpdateTurnStateIsConditional(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			room := newRoom()
			require.NoError(t, st.CreateRoom(ctx, room))

			at := time.Now().UTC().Truncate(time.Second)
			next := room.TurnState
			next.Status = engine.StatusInProgress
			next.Phase = engine.PhaseDebate
			next.CurrentSlot = 2
			next.StartedAt = &at
			next.SpeakerStartedAt = &at

			require.NoError(t, st.UpdateTurnState(ctx, room.ID, room.TurnState, next))

			// second writer still holding the old state loses
			err := st.UpdateTurnState(ctx, room.ID, room.TurnState, next)
			assert.ErrorIs(t, err, ErrStaleTurn)
			assert.ErrorIs(t, err, engine.ErrInvalidState)

			got, err := st.GetRoom(ctx, room.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, got.CurrentSlot)
			assert.Equal(t, engine.StatusInProgress, got.Status)
			require.NotNil(t, got.StartedAt)
			assert.True(t, at.Equal(*got.StartedAt))

			err = st.UpdateTurnState(ctx, uuid.NewString(), room.TurnState, next)
			assert.ErrorIs(t, err, engine.ErrNotFound)
		})
	}
}

func TestStore_Roster(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			room := newRoom()
			require.NoError(t, st.CreateRoom(ctx, room))

			require.NoError(t, st.AddParticipant(ctx, room.ID, engine.Participant{UserID: "a", Role: engine.RolePrimeMinister}))
			require.NoError(t, st.AddParticipant(ctx, room.ID, engine.Participant{UserID: "b", Role: engine.RoleLeaderOfOpposition}))

			assert.ErrorIs(t, st.AddParticipant(ctx, room.ID, engine.Participant{UserID: "c", Role: engine.RolePrimeMinister}), engine.ErrRoleTaken)
			assert.ErrorIs(t, st.AddParticipant(ctx, room.ID, engine.Participant{UserID: "a", Role: engine.RoleGovernmentWhip}), engine.ErrAlreadySeated)

			require.NoError(t, st.SetReady(ctx, room.ID, "b", true))
			assert.ErrorIs(t, st.SetReady(ctx, room.ID, "nobody", true), engine.ErrNotFound)

			roster, err := st.GetParticipants(ctx, room.ID)
			require.NoError(t, err)
			require.Len(t, roster, 2)
			ready := map[string]bool{}
			for _, p := range roster {
				ready[p.UserID] = p.IsReady
			}
			assert.Equal(t, map[string]bool{"a": false, "b": true}, ready)

			require.NoError(t, st.RemoveParticipant(ctx, room.ID, "a"))
			assert.ErrorIs(t, st.RemoveParticipant(ctx, room.ID, "a"), engine.ErrParticipantNotFound)

			roster, err = st.GetParticipants(ctx, room.ID)
			require.NoError(t, err)
			require.Len(t, roster, 1)
			assert.Equal(t, engine.RoleLeaderOfOpposition, roster[0].Role)

			_, err = st.GetParticipants(ctx, uuid.NewString())
			assert.ErrorIs(t, err, engine.ErrRoomNotFound)
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	room := newRoom()
	require.NoError(t, st.CreateRoom(ctx, room))
	require.NoError(t, st.AddParticipant(ctx, room.ID, engine.Participant{UserID: "a", Role: engine.RolePrimeMinister}))

	roster, err := st.GetParticipants(ctx, room.ID)
	require.NoError(t, err)
	roster[0].IsReady = true

	again, err := st.GetParticipants(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, again[0].IsReady)

	assert.Error(t, st.CreateRoom(ctx, room))
}
