package uploads

import (
	uploadsvc "marketplace-backend/internal/application/uploads"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles upload handlers with the service.
type Handlers struct {
	Service *uploadsvc.Service
}

type uploadRequest struct {
	FileName string `json:"fileName"`
}

// UploadListingImage POST /api/v1/uploads/listing-image
func (h *Handlers) UploadListingImage(c *fiber.Ctx) error {
	var req uploadRequest
	if err := c.BodyParser(&req); err != nil || req.FileName == "" {
		return response.ValidationFailed(c, "fileName is required", []string{"fileName"})
	}
	res, err := h.Service.SignListingImage(c.UserContext(), middleware.SubjectID(c), req.FileName)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Upload URL generated", res, nil)
}
