package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/debate-room-backend/internal/engine"
	"github.com/DoyleJ11/debate-room-backend/internal/hub"
	"github.com/DoyleJ11/debate-room-backend/internal/lobby"
	"github.com/DoyleJ11/debate-room-backend/internal/store"
	"github.com/DoyleJ11/debate-room-backend/internal/ws"
	wire "github.com/DoyleJ11/debate-room-backend/pkg/types"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, lobby.Options{Store: store.NewMemory()})
	srv := httptest.NewServer(SetupRoutes(NewAPI(h, engine.DebateFormat(), ws.Options{}, nil)))
	t.Cleanup(srv.Close)
	return srv
}

// call sends body as JSON and decodes the response into out when given.
func call(t *testing.T, srv *httptest.Server, method, path, user string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createRoom(t *testing.T, srv *httptest.Server, req wire.CreateRoomRequest) wire.RoomView {
	t.Helper()
	var room wire.RoomView
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/rooms", "host", req, &room))
	require.Len(t, room.ID, 6)
	return room
}

func TestHealthzAndFormat(t *testing.T) {
	srv := newServer(t)

	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/healthz", "", nil, nil))

	var slots []wire.SlotView
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/format", "", nil, &slots))
	require.Len(t, slots, 8)
	assert.Equal(t, "opposition_reply", slots[6].Role)

	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/metrics", "", nil, nil))
}

func TestCreateRoomRequiresUser(t *testing.T) {
	srv := newServer(t)
	var errResp wire.ErrorResponse
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodPost, "/rooms", "", nil, &errResp))
	assert.Contains(t, errResp.Error, "X-User-ID")
}

func TestUnknownRoomIs404(t *testing.T) {
	srv := newServer(t)
	var errResp wire.ErrorResponse
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, "/rooms/NOPE00", "", nil, &errResp))
	assert.Equal(t, "not_found", errResp.Kind)
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodPost, "/rooms/NOPE00/advance", "", nil, &errResp))
}

func TestDebateFlow(t *testing.T) {
	srv := newServer(t)
	room := createRoom(t, srv, wire.CreateRoomRequest{})
	base := "/rooms/" + room.ID

	var errResp wire.ErrorResponse
	var view wire.RoomView

	// seats
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/seats", "bob", wire.TakeSeatRequest{Role: "leader_of_opposition"}, &view))
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/seats", "alice", wire.TakeSeatRequest{Role: "prime_minister"}, &view))
	assert.Len(t, view.Roster, 2)
	assert.Len(t, view.ActiveOrder, 4)

	assert.Equal(t, http.StatusPreconditionFailed, call(t, srv, http.MethodPost, base+"/seats", "carol", wire.TakeSeatRequest{Role: "prime_minister"}, &errResp))
	assert.Equal(t, "precondition_failed", errResp.Kind)

	// no motion yet
	assert.Equal(t, http.StatusPreconditionFailed, call(t, srv, http.MethodPost, base+"/start", "host", nil, &errResp))
	assert.Contains(t, errResp.Error, "motion")

	assert.Equal(t, http.StatusForbidden, call(t, srv, http.MethodPut, base+"/motion", "alice", wire.SetMotionRequest{Motion: "x"}, &errResp))
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPut, base+"/motion", "host", wire.SetMotionRequest{Motion: "This house would abolish the monarchy"}, &view))
	assert.Equal(t, "This house would abolish the monarchy", view.Motion)

	// not everyone ready
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/ready", "alice", wire.SetReadyRequest{Ready: true}, &view))
	assert.Equal(t, http.StatusPreconditionFailed, call(t, srv, http.MethodPost, base+"/start", "host", nil, &errResp))
	assert.Contains(t, errResp.Error, "not all participants are ready")

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/ready", "bob", wire.SetReadyRequest{Ready: true}, &view))
	assert.Equal(t, http.StatusForbidden, call(t, srv, http.MethodPost, base+"/start", "alice", nil, &errResp))

	var started wire.StartResponse
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/start", "host", nil, &started))
	assert.True(t, started.Success)

	var speaker wire.SpeakerView
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, base+"/speaker", "", nil, &speaker))
	assert.Equal(t, "prime_minister", speaker.Slot.Role)
	assert.Equal(t, "alice", speaker.Slot.SpeakerUserID)

	// roster is frozen now
	assert.Equal(t, http.StatusConflict, call(t, srv, http.MethodDelete, base+"/seats/me", "bob", nil, &errResp))
	assert.Equal(t, "invalid_state", errResp.Kind)

	var adv wire.AdvanceResponse
	for _, want := range []int{1, 6, 7} {
		require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/advance", "", nil, &adv))
		require.False(t, adv.Completed)
		require.NotNil(t, adv.NextSlotIndex)
		assert.Equal(t, want, *adv.NextSlotIndex)
	}

	adv = wire.AdvanceResponse{}
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/advance", "", nil, &adv))
	assert.True(t, adv.Completed)
	assert.Nil(t, adv.NextSlotIndex)

	assert.Equal(t, http.StatusConflict, call(t, srv, http.MethodPost, base+"/advance", "", nil, &errResp))
	assert.Contains(t, errResp.Error, "already completed")

	assert.Equal(t, http.StatusNoContent, call(t, srv, http.MethodGet, base+"/speaker", "", nil, nil))

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, base, "", nil, &view))
	assert.Equal(t, "completed", view.Status)
	assert.Equal(t, "feedback", view.Phase)
	assert.NotNil(t, view.EndedAt)

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/feedback/close", "host", nil, &view))
	assert.Equal(t, "completed", view.Phase)
}

func TestPrivateRoomAndCancel(t *testing.T) {
	srv := newServer(t)
	room := createRoom(t, srv, wire.CreateRoomRequest{Motion: "This house would ban zoos", Passcode: "owl"})
	assert.True(t, room.Private)
	base := "/rooms/" + room.ID

	var errResp wire.ErrorResponse
	assert.Equal(t, http.StatusForbidden, call(t, srv, http.MethodPost, base+"/seats", "alice", wire.TakeSeatRequest{Role: "prime_minister", Passcode: "cat"}, &errResp))
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/seats", "alice", wire.TakeSeatRequest{Role: "prime_minister", Passcode: "owl"}, nil))

	assert.Equal(t, http.StatusForbidden, call(t, srv, http.MethodPost, base+"/cancel", "alice", nil, &errResp))

	var view wire.RoomView
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/cancel", "host", nil, &view))
	assert.Equal(t, "cancelled", view.Status)

	assert.Equal(t, http.StatusConflict, call(t, srv, http.MethodPost, base+"/start", "host", nil, &errResp))
	assert.Contains(t, errResp.Error, "room is completed or cancelled")
	assert.Equal(t, "invalid_state", errResp.Kind)
}

func TestBadJSON(t *testing.T) {
	srv := newServer(t)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/rooms", bytes.NewBufferString("{"))
	require.NoError(t, err)
	req.Header.Set("X-User-ID", "host")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
