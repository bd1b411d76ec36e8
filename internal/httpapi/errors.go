package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/DoyleJ11/debate-room-backend/internal/engine"
	"github.com/DoyleJ11/debate-room-backend/internal/lobby"
	wire "github.com/DoyleJ11/debate-room-backend/pkg/types"
)

var kindStatus = map[string]int{
	"not_found":           http.StatusNotFound,
	"forbidden":           http.StatusForbidden,
	"precondition_failed": http.StatusPreconditionFailed,
	"invalid_state":       http.StatusConflict,
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if kind := engine.KindOf(err); kind != "" {
		writeJSON(w, kindStatus[kind], errorBody(err.Error(), kind))
		return
	}
	switch {
	case errors.Is(err, lobby.ErrClosed):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("room is shutting down", ""))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("request cancelled", ""))
	default:
		a.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error", ""))
	}
}

func errorBody(msg, kind string) wire.ErrorResponse {
	return wire.ErrorResponse{Error: msg, Kind: kind}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
