package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DoyleJ11/debate-room-backend/internal/engine"
	"github.com/DoyleJ11/debate-room-backend/internal/hub"
	"github.com/DoyleJ11/debate-room-backend/internal/lobby"
	"github.com/DoyleJ11/debate-room-backend/internal/store"
	"github.com/DoyleJ11/debate-room-backend/internal/types"
	"github.com/DoyleJ11/debate-room-backend/internal/ws"
	wire "github.com/DoyleJ11/debate-room-backend/pkg/types"
)

type API struct {
	hub    *hub.Hub
	store  store.Store
	format []engine.Slot
	ws     ws.Options
	log    *zap.Logger
	now    func() time.Time
}

func NewAPI(h *hub.Hub, format []engine.Slot, wsOpts ws.Options, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	wsOpts.Format = format
	wsOpts.Log = log.Named("ws")
	return &API{
		hub:    h,
		store:  h.Store(),
		format: format,
		ws:     wsOpts,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func (a *API) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req wire.CreateRoomRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error(), ""))
		return
	}

	var code string
	for {
		c, err := GenerateCode()
		if err != nil {
			a.writeError(w, r, fmt.Errorf("generate room code: %w", err))
			return
		}
		_, err = a.store.GetRoom(r.Context(), c)
		if errors.Is(err, engine.ErrNotFound) {
			code = c
			break
		}
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		a.log.Debug("collision on code, regenerating", zap.String("code", c))
	}

	room := engine.Room{
		ID:        code,
		CreatorID: UserID(r.Context()),
		Motion:    strings.TrimSpace(req.Motion),
		CreatedAt: a.now(),
		TurnState: engine.NewTurnState(),
	}
	if req.Passcode != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Passcode), bcrypt.DefaultCost)
		if err != nil {
			a.writeError(w, r, fmt.Errorf("hash passcode: %w", err))
			return
		}
		room.PasscodeHash = string(hash)
	}
	if err := a.store.CreateRoom(r.Context(), room); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.log.Info("room created", zap.String("room_id", room.ID), zap.String("creator_id", room.CreatorID))

	writeJSON(w, http.StatusCreated, types.NewRoomView(a.format, room, nil, a.now()))
}

func (a *API) GetRoom(w http.ResponseWriter, r *http.Request) {
	view, err := a.readRoom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetSpeaker answers the polling clients. 204 means nobody holds the floor.
func (a *API) GetSpeaker(w http.ResponseWriter, r *http.Request) {
	view, err := a.readRoom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if view.Speaker == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, view.Speaker)
}

func (a *API) GetFormat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.FormatView(a.format))
}

func (a *API) SetMotion(w http.ResponseWriter, r *http.Request) {
	var req wire.SetMotionRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error(), ""))
		return
	}
	a.mutate(w, r, func(lb *lobby.Lobby) error {
		return lb.SetMotion(r.Context(), UserID(r.Context()), req.Motion)
	})
}

func (a *API) TakeSeat(w http.ResponseWriter, r *http.Request) {
	var req wire.TakeSeatRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error(), ""))
		return
	}
	a.mutate(w, r, func(lb *lobby.Lobby) error {
		return lb.TakeSeat(r.Context(), UserID(r.Context()), engine.Role(req.Role), req.Passcode)
	})
}

func (a *API) LeaveSeat(w http.ResponseWriter, r *http.Request) {
	a.mutate(w, r, func(lb *lobby.Lobby) error {
		return lb.LeaveSeat(r.Context(), UserID(r.Context()))
	})
}

func (a *API) SetReady(w http.ResponseWriter, r *http.Request) {
	var req wire.SetReadyRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error(), ""))
		return
	}
	a.mutate(w, r, func(lb *lobby.Lobby) error {
		return lb.SetReady(r.Context(), UserID(r.Context()), req.Ready)
	})
}

func (a *API) StartDebate(w http.ResponseWriter, r *http.Request) {
	lb, err := a.hub.Lobby(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := lb.StartDebate(r.Context(), UserID(r.Context())); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.StartResponse{Success: true})
}

func (a *API) AdvanceSpeaker(w http.ResponseWriter, r *http.Request) {
	lb, err := a.hub.Lobby(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	outcome, err := lb.AdvanceSpeaker(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.AdvanceResponse{Completed: outcome.Completed, NextSlotIndex: outcome.NextSlot})
}

func (a *API) Cancel(w http.ResponseWriter, r *http.Request) {
	a.mutate(w, r, func(lb *lobby.Lobby) error {
		return lb.Cancel(r.Context(), UserID(r.Context()))
	})
}

func (a *API) CloseFeedback(w http.ResponseWriter, r *http.Request) {
	a.mutate(w, r, func(lb *lobby.Lobby) error {
		return lb.CloseFeedback(r.Context(), UserID(r.Context()))
	})
}

// mutate runs op on the room's lobby and answers with the resulting room.
func (a *API) mutate(w http.ResponseWriter, r *http.Request, op func(*lobby.Lobby) error) {
	lb, err := a.hub.Lobby(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := op(lb); err != nil {
		a.writeError(w, r, err)
		return
	}
	view, err := lb.State(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	rv := types.NewRoomView(a.format, view.Room, view.Roster, a.now())
	rv.Version = view.Version
	writeJSON(w, http.StatusOK, rv)
}

func (a *API) readRoom(r *http.Request) (wire.RoomView, error) {
	id := chi.URLParam(r, "id")
	room, err := a.store.GetRoom(r.Context(), id)
	if err != nil {
		return wire.RoomView{}, err
	}
	roster, err := a.store.GetParticipants(r.Context(), id)
	if err != nil {
		return wire.RoomView{}, err
	}
	return types.NewRoomView(a.format, room, roster, a.now()), nil
}

// decode reads an optional JSON body; an empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("bad json: %w", err)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
