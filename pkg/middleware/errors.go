package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"agriadvisor/pkg/apperr"
	"agriadvisor/pkg/logger"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorJSON writes err in the API error shape. Errors outside the domain
// taxonomy are logged and answered with a generic 500 body.
func ErrorJSON(c echo.Context, err error) error {
	if e, ok := apperr.As(err); ok {
		return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": errorBody{Kind: string(e.Kind), Message: e.Msg, Field: e.Field}})
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": errorBody{Kind: "canceled", Message: "request ended before the result was ready"}})
	}
	if log, ok := c.Get(loggerKey).(*logger.Logger); ok {
		log.Error("request failed", "error", err)
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": errorBody{Kind: "internal", Message: "internal error"}})
}

// ErrorHandler renders echo's own errors (unknown route, bad method, bind
// failures) in the same shape as domain errors.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	log = logger.OrNop(log)
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
			kind := strings.ReplaceAll(strings.ToLower(http.StatusText(he.Code)), " ", "_")
			if werr := c.JSON(he.Code, echo.Map{"error": errorBody{Kind: kind, Message: msg}}); werr != nil {
				log.Warn("write error response", "error", werr)
			}
			return
		}
		if werr := ErrorJSON(c, err); werr != nil {
			log.Warn("write error response", "error", werr)
		}
	}
}

// ParamID reads a positive integer path parameter.
func ParamID(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, apperr.Validation(name, "%q is not a valid id", raw)
	}
	return uint(n), nil
}
