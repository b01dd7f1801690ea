package health

import (
	"crypto/subtle"

	healthsvc "marketplace-backend/internal/application/health"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const serviceName = "marketplace-api"

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Rdb            *redis.Client
	DB             healthsvc.DBPinger
	HealthAdminKey string
}

// Live GET /health: process is up; dependencies are not checked
func (h *Handlers) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"service": serviceName, "status": "ok"})
}

// JSON GET /health/json: 503 when the store or Redis is not connected
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := healthsvc.CollectHealth(c.UserContext(), h.Rdb, h.DB)
	code := fiber.StatusOK
	if result.Status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"service":      serviceName,
		"status":       result.Status,
		"runtime":      result.Runtime,
		"traffic":      result.Traffic,
		"dependencies": result.Dependencies,
	})
}

// Errors GET /health/errors: last 50 5xx entries
func (h *Handlers) Errors(c *fiber.Ctx) error {
	if h.Rdb == nil {
		return c.JSON([]interface{}{})
	}
	entries, err := healthsvc.RecentErrors(c.UserContext(), h.Rdb, 50)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON([]interface{}{})
	}
	return c.JSON(entries)
}

// Reset GET /reset?key=: clears traffic counters. Requires HEALTH_ADMIN_KEY.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if h.HealthAdminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.HealthAdminKey)) != 1 {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	if h.Rdb == nil {
		return response.Error(c, "Redis is not configured", fiber.StatusServiceUnavailable, nil)
	}
	if err := healthsvc.Reset(c.UserContext(), h.Rdb); err != nil {
		return response.Error(c, "Failed to reset stats", fiber.StatusServiceUnavailable, nil)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}
