package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/support-dispatch/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	statex "github.com/tanpawarit/support-dispatch/agent/state"
)

type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeSuccess(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(SuccessEnvelope{Success: true, Data: data}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to encode success response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Code: code, Message: message}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int("status", status).Str("code", code).Msg("failed to encode error response")
	}
}

// handleError maps engine errors onto HTTP statuses.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())

	switch {
	case errors.Is(err, statex.ErrStateNotFound):
		logger.Warn().Err(err).Msg("session not found")
		writeError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, contractx.ErrValidation),
		errors.Is(err, contractx.ErrInvalidDomain),
		errors.Is(err, statex.ErrMissingFields),
		errors.Is(err, statex.ErrInvalidSession),
		errors.Is(err, orchestrator.ErrInvalidMessage):
		logger.Warn().Err(err).Msg("invalid request")
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		logger.Error().Err(err).Msg("unexpected error")
		writeError(w, r, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
