package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"github.com/storefront/credential-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind"`
}

// kindStatus maps every failure kind to the HTTP status it is rendered with.
var kindStatus = map[domain.Kind]int{
	domain.KindValidationFailed:             http.StatusBadRequest,
	domain.KindPasswordConfirmationMismatch: http.StatusBadRequest,
	domain.KindOldPasswordIncorrect:         http.StatusBadRequest,
	domain.KindResetTokenInvalidOrExpired:   http.StatusBadRequest,
	domain.KindDuplicateIdentity:            http.StatusConflict,
	domain.KindInvalidCredentials:           http.StatusUnauthorized,
	domain.KindUnauthenticated:              http.StatusUnauthorized,
	domain.KindTokenExpired:                 http.StatusUnauthorized,
	domain.KindTokenMalformed:               http.StatusUnauthorized,
	domain.KindForbidden:                    http.StatusForbidden,
	domain.KindIdentityNotFound:             http.StatusNotFound,
	domain.KindDeliveryFailed:               http.StatusInternalServerError,
	domain.KindStorage:                      http.StatusServiceUnavailable,
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs server-side causes without leaking them to the client.
//   - Renders {"success": false, "error": "<message>", "kind": "<kind>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var de *domain.Error
	if errors.As(err, &de) {
		status, ok := kindStatus[de.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			logCause(log, c, err, "request failed")
		}
		return status, errorResponse{Error: de.Error(), Kind: string(de.Kind)}
	}

	// Echo's own errors that reach here unwrapped (unknown route, method not allowed, body too large).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		kind := domain.KindInternal
		if he.Code < http.StatusInternalServerError {
			kind = domain.KindValidationFailed
		}
		if he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed {
			kind = "route_not_found"
		}
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Kind: string(kind)}
	}

	// Unexpected error: log the real cause, return a generic message.
	logCause(log, c, err, "unhandled error")
	return http.StatusInternalServerError, errorResponse{
		Error: "internal server error",
		Kind:  string(domain.KindInternal),
	}
}

func logCause(log zerolog.Logger, c echo.Context, err error, msg string) {
	evt := log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil {
			evt = evt.Interface("code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			evt = evt.Fields(ctx)
		}
		if d := oopsErr.Domain(); d != "" {
			evt = evt.Str("domain", d)
		}
	}
	evt.Msg(msg)
}
