package listingevents

import (
	eventsvc "marketplace-backend/internal/application/listingevents"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *eventsvc.Service
}

// GetListingEvents GET /api/v1/listings/:type/:slug/events: owner only
func (h *Handlers) GetListingEvents(c *fiber.Ctx) error {
	t, ok := domain.ParseListingType(c.Params("type"))
	if !ok {
		return response.FromError(c, domain.ErrNotFound)
	}
	events, err := h.Service.ListForListing(c.UserContext(), t, c.Params("slug"), middleware.SubjectID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Listing events fetched successfully", events, nil)
}

// GetMyEvents GET /api/v1/users/me/events
func (h *Handlers) GetMyEvents(c *fiber.Ctx) error {
	events, err := h.Service.ListByActor(c.UserContext(), middleware.SubjectID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Events fetched successfully", events, nil)
}
