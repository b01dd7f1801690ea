package listings

import (
	"encoding/json"
	"strings"

	listsvc "marketplace-backend/internal/application/listings"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *listsvc.Service
}

func parseFields(c *fiber.Ctx) (domain.ListingFields, bool) {
	var in domain.ListingFields
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return in, false
	}
	return in, true
}

// listingType resolves the :type param; unknown types read as a missing listing.
func listingType(c *fiber.Ctx) (domain.ListingType, bool) {
	return domain.ParseListingType(c.Params("type"))
}

// CreateListing POST /api/v1/listings: 201 with { id, slug }
func (h *Handlers) CreateListing(c *fiber.Ctx) error {
	in, ok := parseFields(c)
	if !ok {
		return response.ValidationFailed(c, "Invalid request body", nil)
	}
	res, err := h.Service.Create(c.UserContext(), middleware.SubjectID(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Listing created successfully", res, nil)
}

// GetMyListings GET /api/v1/listings: listings owned by the caller
func (h *Handlers) GetMyListings(c *fiber.Ctx) error {
	out, err := h.Service.GetByOwner(c.UserContext(), middleware.SubjectID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Listings fetched successfully", out, fiber.Map{"count": len(out)})
}

// GetListing GET /api/v1/listings/:type/:slug: public; old slugs redirect to the canonical one
func (h *Handlers) GetListing(c *fiber.Ctx) error {
	t, ok := listingType(c)
	if !ok {
		return response.FromError(c, domain.ErrNotFound)
	}
	res, err := h.Service.GetByTypeAndSlug(c.UserContext(), t, c.Params("slug"))
	if err != nil {
		return response.FromError(c, err)
	}
	if res.Redirected {
		return response.MovedPermanently(c, canonicalPath(c, res.Listing.Slug), "Listing moved", res.Listing)
	}
	return response.Success(c, "Listing fetched successfully", res.Listing, nil)
}

// UpdateListing PUT /api/v1/listings/:type/:slug: partial patch by the owner
func (h *Handlers) UpdateListing(c *fiber.Ctx) error {
	t, ok := listingType(c)
	if !ok {
		return response.FromError(c, domain.ErrNotFound)
	}
	patch, ok := parseFields(c)
	if !ok {
		return response.ValidationFailed(c, "Invalid request body", nil)
	}
	res, err := h.Service.Update(c.UserContext(), t, c.Params("slug"), middleware.SubjectID(c), patch)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Listing updated successfully", res, nil)
}

// DeleteListing DELETE /api/v1/listings/:type/:slug
func (h *Handlers) DeleteListing(c *fiber.Ctx) error {
	t, ok := listingType(c)
	if !ok {
		return response.FromError(c, domain.ErrNotFound)
	}
	slugValue := c.Params("slug")
	if err := h.Service.Delete(c.UserContext(), t, slugValue, middleware.SubjectID(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Listing deleted successfully", fiber.Map{"listingType": t, "slug": slugValue}, nil)
}

// GetCategory GET /api/v1/categories/:category: newest listings of one type
func (h *Handlers) GetCategory(c *fiber.Ctx) error {
	t, ok := domain.ParseListingType(c.Params("category"))
	if !ok {
		return response.Error(c, "Unknown category", fiber.StatusNotFound, nil)
	}
	out, err := h.Service.ListCategory(c.UserContext(), t)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Category listings fetched successfully", out, fiber.Map{
		"category": t,
		"count":    len(out),
		"limit":    listsvc.CategoryPageSize,
	})
}

// canonicalPath swaps the trailing slug segment of the request path.
func canonicalPath(c *fiber.Ctx, canonical string) string {
	p := strings.TrimSuffix(c.Path(), "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[:i]
	}
	return p + "/" + canonical
}
