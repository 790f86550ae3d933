package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ififf/internal/storage"
	"github.com/samcharles93/ififf/pkg/blorb"
	"github.com/samcharles93/ififf/pkg/iff"
	"github.com/samcharles93/ififf/pkg/quetzal"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorBody{
			Message: msg,
			Type:    errType,
		},
	})
}

// writeFailure maps codec and store errors onto HTTP statuses.
func writeFailure(c *echo.Context, err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return writeError(c, http.StatusRequestEntityTooLarge, "too_large_error", err.Error())
	case errors.Is(err, ErrInvalidRequest):
		return writeBadRequest(c, err.Error())
	case errors.Is(err, storage.ErrSlotNotFound):
		return writeNotFound(c, err.Error())
	case errors.Is(err, blorb.ErrGameMismatch):
		return writeError(c, http.StatusConflict, "game_mismatch_error", err.Error())
	case errors.Is(err, quetzal.ErrIncompatible):
		return writeError(c, http.StatusUnprocessableEntity, "incompatible_error", err.Error())
	case errors.Is(err, iff.ErrFormat), errors.Is(err, quetzal.ErrCompression):
		return writeError(c, http.StatusBadRequest, "format_error", err.Error())
	default:
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
}
