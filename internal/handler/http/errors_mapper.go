package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/envelope-sync/internal/remote"
	"github.com/MKhiriev/envelope-sync/internal/service"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidBudgetID:         http.StatusBadRequest,
	service.ErrInvalidDocumentPath:     http.StatusBadRequest,
	service.ErrTokenIsExpiredOrInvalid: http.StatusUnauthorized,
	service.ErrTokenCreationFailed:     http.StatusInternalServerError,

	remote.ErrDocumentNotFound: http.StatusNotFound,
	remote.ErrEmptyBudgetID:    http.StatusBadRequest,
	remote.ErrEmptyPath:        http.StatusBadRequest,
	remote.ErrBadRequest:       http.StatusBadRequest,
	remote.ErrForbidden:        http.StatusForbidden,
	remote.ErrQuotaExceeded:    http.StatusTooManyRequests,
	remote.ErrUnavailable:      http.StatusServiceUnavailable,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
