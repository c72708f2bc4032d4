package common

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/ytingest/internal/ingest"
)

// ErrBadRequest returns a 400 Bad Request error.
func ErrBadRequest(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// ErrInternal returns a 500 Internal Server Error.
func ErrInternal(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusInternalServerError, msg)
}

// ErrBadGateway returns a 502 Bad Gateway error.
func ErrBadGateway(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadGateway, msg)
}

const (
	DetailInvalidSignature = "Invalid signature"
	DetailUpstreamStatus   = "YouTube API error"
	DetailUpstreamInternal = "Internal fetching error"
	DetailRateLimited      = "Rate limit exceeded"
)

// FromIngest maps an ingestion error onto the HTTP error the caller sees.
// persistenceDetail is the message used for write failures, which differs
// per endpoint.
func FromIngest(err error, persistenceDetail string) *echo.HTTPError {
	var (
		upstream   *ingest.UpstreamError
		validation *ingest.ValidationError
		auth       *ingest.AuthenticityError
		persist    *ingest.PersistenceError
		he         *echo.HTTPError
	)

	var out *echo.HTTPError
	switch {
	case errors.As(err, &upstream):
		if upstream.StatusCode() != 0 {
			out = ErrBadGateway(DetailUpstreamStatus)
		} else {
			out = ErrBadGateway(DetailUpstreamInternal)
		}
	case errors.As(err, &validation):
		out = ErrBadRequest(validation.Error())
	case errors.As(err, &auth):
		out = ErrBadRequest(DetailInvalidSignature)
	case errors.As(err, &persist):
		out = ErrInternal(persistenceDetail)
	case errors.As(err, &he):
		return he
	default:
		out = ErrInternal(http.StatusText(http.StatusInternalServerError))
	}
	return out.SetInternal(err)
}

type errorBody struct {
	Detail any `json:"detail"`
}

// HTTPErrorHandler renders every error as {"detail": message}. Internal
// causes are logged but never sent to the caller.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		he = ErrInternal(http.StatusText(http.StatusInternalServerError)).SetInternal(err)
	}

	msg := he.Message
	switch m := msg.(type) {
	case nil:
		msg = http.StatusText(he.Code)
	case string:
		if m == "" {
			msg = http.StatusText(he.Code)
		}
	case error:
		msg = m.Error()
	}

	if he.Code >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"status", he.Code,
			"error", he.Internal,
		)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(he.Code)
	} else {
		werr = c.JSON(he.Code, errorBody{Detail: msg})
	}
	if werr != nil {
		slog.Error("failed to write error response", "error", werr)
	}
}
