package dashboard

import (
	"errors"
	"net/http"

	"hitstudio/internal/services"
	"hitstudio/internal/tracker"
)

type errorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tracker.ErrJobInFlight), errors.Is(err, services.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrBackendRejection):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrTransport):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func newErrorResponse(err error) errorResponse {
	resp := errorResponse{Error: err.Error(), Kind: services.Kind(err)}
	if reason, ok := services.RejectionReason(err); ok {
		resp.Reason = reason
	}
	return resp
}
