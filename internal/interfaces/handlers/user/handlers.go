package user

import (
	"encoding/json"

	usersvc "marketplace-backend/internal/application/user"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds the user service.
type Handlers struct {
	Service *usersvc.Service
}

// SyncUser POST /api/v1/users/sync: upsert the caller's profile; email and name default to the token's
func (h *Handlers) SyncUser(c *fiber.Ctx) error {
	id := middleware.GetIdentity(c)
	if id == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in usersvc.SyncInput
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &in); err != nil {
			return response.ValidationFailed(c, "Invalid request body", nil)
		}
	}
	in.UID = id.UID
	if in.Email == "" {
		in.Email = id.Email
	}
	if in.Name == "" {
		in.Name = id.Name
	}
	u, err := h.Service.Sync(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "User synced successfully", u, nil)
}

// GetMe GET /api/v1/users/me
func (h *Handlers) GetMe(c *fiber.Ctx) error {
	u, err := h.Service.Get(c.UserContext(), middleware.SubjectID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "User fetched successfully", u, nil)
}

// DeleteMe DELETE /api/v1/users/me: refused while the caller still owns listings
func (h *Handlers) DeleteMe(c *fiber.Ctx) error {
	uid := middleware.SubjectID(c)
	if err := h.Service.Delete(c.UserContext(), uid); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "User deleted successfully", fiber.Map{"uid": uid}, nil)
}
