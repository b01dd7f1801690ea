package search

import (
	"context"

	searchsvc "marketplace-backend/internal/application/search"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Pool is the listing set a search filters over.
type Pool interface {
	SearchPool(ctx context.Context, t domain.ListingType) ([]domain.Listing, error)
}

type Handlers struct {
	Listings Pool
}

// Search GET /api/v1/search?q=&type=&category=&booking=&minPrice=&maxPrice=&amenities=&lat=&lng=&radiusKm=&bbox=
func (h *Handlers) Search(c *fiber.Ctx) error {
	criteria, err := searchsvc.ParseQuery(func(key string) string { return c.Query(key) })
	if err != nil {
		return response.FromError(c, err)
	}
	pool, err := h.Listings.SearchPool(c.UserContext(), criteria.Type)
	if err != nil {
		return response.FromError(c, err)
	}
	out := searchsvc.Filter(pool, criteria)
	return response.Success(c, "Search results fetched successfully", out, fiber.Map{
		"count":   len(out),
		"scanned": len(pool),
	})
}
