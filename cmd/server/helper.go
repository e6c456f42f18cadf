package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/epic-mining-calc/internal/calculator"
	"github.com/yourorg/epic-mining-calc/internal/model"
	"github.com/yourorg/epic-mining-calc/internal/query"
	"github.com/yourorg/epic-mining-calc/internal/reward"
	"github.com/yourorg/epic-mining-calc/internal/service"
)

// ErrorResponse is the body written for every failed request
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Status     string `json:"status"`
	Error      string `json:"error"`
	RequestID  string `json:"requestId,omitempty"`
}

// statusFor maps a service error to its HTTP status. Upstream failures are
// checked first since they may wrap a ConfigError from snapshot validation.
func statusFor(err error) int {
	var cfgErr *model.ConfigError
	switch {
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, query.ErrNoHashrate), errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.Is(err, reward.ErrUnknownTier),
		errors.Is(err, calculator.ErrZeroNetworkHashrate),
		errors.Is(err, calculator.ErrNoBlocks):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to write response")
	}
}

func errorResponse(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, code, ErrorResponse{
		StatusCode: code,
		Status:     "error",
		Error:      msg,
		RequestID:  requestID(r),
	})
}
