package middleware

import (
	"strconv"
	"time"

	"marketplace-backend/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request count and latency labelled by route pattern, so
// /listings/stay/a and /listings/stay/b share one series.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		if status == fiber.StatusNotFound && path == "/" {
			path = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Method(), path, strconv.Itoa(status), time.Since(start))
		return err
	}
}
