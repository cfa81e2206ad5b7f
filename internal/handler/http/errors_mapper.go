package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/chat-guard/internal/identity"
	"github.com/MKhiriev/chat-guard/internal/service"
	"github.com/MKhiriev/chat-guard/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided: http.StatusBadRequest,
	service.ErrRateLimited:         http.StatusTooManyRequests,
	service.ErrQuotaExceeded:       http.StatusTooManyRequests,
	service.ErrEmailNotVerified:    http.StatusForbidden,
	service.ErrInvalidCredentials:  http.StatusUnauthorized,
	service.ErrSessionInvalid:      http.StatusUnauthorized,
	service.ErrUpstreamUnavailable: http.StatusBadGateway,

	identity.ErrAccountAlreadyExists:    http.StatusConflict,
	identity.ErrInvalidVerificationCode: http.StatusBadRequest,
	identity.ErrAccountNotFound:         http.StatusNotFound,

	store.ErrUserAlreadyExists: http.StatusConflict,
	store.ErrUserNotFound:      http.StatusNotFound,
	store.ErrSessionNotFound:   http.StatusUnauthorized,

	store.ErrBuildingSQLQuery:   http.StatusInternalServerError,
	store.ErrExecutingQuery:     http.StatusInternalServerError,
	store.ErrExecutingStatement: http.StatusInternalServerError,
	store.ErrScanningRow:        http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
