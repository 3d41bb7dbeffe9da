package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs completed HTTP requests. Streaming endpoints are
// skipped: their connections stay open for the whole pipeline run and a
// latency line per run is just noise.
func RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if strings.HasSuffix(req.URL.Path, "/stream") || strings.HasSuffix(req.URL.Path, "/ws") {
				return next(c)
			}
			start := time.Now()

			err := next(c)

			log.Printf("[%s] %s %s - %d (%s)",
				req.Method,
				req.RequestURI,
				req.RemoteAddr,
				c.Response().Status,
				time.Since(start),
			)
			return err
		}
	}
}
