package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"workforce/internal/domain/core"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("write json failed", zap.Error(err))
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID})
}

func FailWithDetails(w http.ResponseWriter, status int, code, message string, details any, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message, Details: details}, RequestID: requestID})
}

// FromError writes the envelope for a service error. Persistence failures never leak their cause.
func FromError(w http.ResponseWriter, err error, requestID string) {
	var validation *core.ValidationError
	switch {
	case errors.As(err, &validation):
		FailWithDetails(w, http.StatusBadRequest, "validation_error", core.Message(err),
			map[string]string{"field": validation.Field}, requestID)
	case errors.Is(err, core.ErrValidation):
		Fail(w, http.StatusBadRequest, "validation_error", core.Message(err), requestID)
	case errors.Is(err, core.ErrNotFound):
		Fail(w, http.StatusNotFound, "not_found", core.Message(err), requestID)
	case errors.Is(err, core.ErrConflict):
		Fail(w, http.StatusConflict, "conflict", core.Message(err), requestID)
	default:
		Fail(w, http.StatusInternalServerError, "internal_error", "the operation could not be completed", requestID)
	}
}
