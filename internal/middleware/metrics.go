package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/fresh-feed/internal/metrics"
)

// RequestMetrics records count and latency for every request, labelled by
// the matched route pattern so ids do not blow up cardinality
func RequestMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		endpoint := "unmatched"
		if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
			endpoint = route.Path
		}
		metrics.RecordAPIRequest(c.Method(), endpoint, strconv.Itoa(status), time.Since(start))
		return err
	}
}
