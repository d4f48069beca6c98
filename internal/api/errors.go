package api

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/xtfkit/internal/channel"
	"github.com/samcharles93/xtfkit/internal/convert"
	"github.com/samcharles93/xtfkit/pkg/segy"
	"github.com/samcharles93/xtfkit/pkg/xtf"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrOutsideRoot    = errors.New("path outside the served root")
)

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

// ResponseError is the body of every error response.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// failure maps an error to its HTTP status and error type.
func failure(err error) (int, string) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound, "not_found_error"
	case errors.Is(err, ErrOutsideRoot), errors.Is(err, fs.ErrPermission):
		return http.StatusForbidden, "permission_error"
	case errors.Is(err, convert.ErrOutputExists):
		return http.StatusConflict, "conflict_error"
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, convert.ErrInvalidRequest),
		errors.Is(err, convert.ErrUnsupportedConversion),
		errors.Is(err, channel.ErrEmptySelection),
		errors.Is(err, channel.ErrNoChannel),
		errors.Is(err, channel.ErrUnknownFormat),
		errors.Is(err, segy.ErrUnsupportedEncoding),
		errors.Is(err, xtf.ErrBadMagic),
		errors.Is(err, xtf.ErrCorruptHeader):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, convert.ErrCancelled), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "cancelled_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

func writeFailure(c *echo.Context, err error) error {
	status, typ := failure(err)
	return writeError(c, status, typ, err.Error())
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
		},
	})
}
