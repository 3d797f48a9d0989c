package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"agriadvisor/pkg/logger"
)

const loggerKey = "logger"

// RequestLogger logs one line per request and stores a request-scoped
// logger on the context for handlers.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	log = logger.OrNop(log)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			reqLog := log.With("method", req.Method, "path", c.Path())
			c.Set(loggerKey, reqLog)

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			kv := []interface{}{"status", status, "uri", req.RequestURI, "latency", time.Since(start)}
			switch {
			case status >= 500:
				reqLog.Error("request", kv...)
			case status >= 400:
				reqLog.Warn("request", kv...)
			default:
				reqLog.Info("request", kv...)
			}
			return nil
		}
	}
}

// Logger returns the request-scoped logger, or a no-op one outside a request.
func Logger(c echo.Context) *logger.Logger {
	if l, ok := c.Get(loggerKey).(*logger.Logger); ok {
		return l
	}
	return logger.Nop()
}
