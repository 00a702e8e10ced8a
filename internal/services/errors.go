package services

import (
	"errors"
	"net/http"

	"github.com/Lllllllleong/yearbookflow/internal/locks"
)

// StatusCode maps a Process error to the HTTP status the function responds with.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, locks.ErrLocked):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
