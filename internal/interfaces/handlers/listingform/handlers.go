package listingform

import (
	"encoding/json"

	"marketplace-backend/internal/application/listingform"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type Handlers struct {
	Drafts *listingform.DraftStore
}

type stepInfo struct {
	Step     listingform.Step `json:"step"`
	Fields   []string         `json:"fields"`
	Required []string         `json:"required"`
}

// GetSteps GET /api/v1/listing-form/steps?type=: public step sequence for a type
func (h *Handlers) GetSteps(c *fiber.Ctx) error {
	var t domain.ListingType
	if v := c.Query("type"); v != "" {
		parsed, ok := domain.ParseListingType(v)
		if !ok {
			return response.ValidationFailed(c, "Invalid listing type", []string{"type"})
		}
		t = parsed
	}
	required := map[string]bool{}
	if t != "" {
		for _, f := range domain.RequiredFields(t) {
			required[f] = true
		}
	}
	steps := listingform.StepsFor(t)
	out := make([]stepInfo, 0, len(steps))
	for _, s := range steps {
		info := stepInfo{Step: s, Fields: listingform.StepFields(s), Required: []string{}}
		if info.Fields == nil {
			info.Fields = []string{}
		}
		for _, f := range info.Fields {
			if required[f] || f == domain.FieldListingType {
				info.Required = append(info.Required, f)
			}
		}
		out = append(out, info)
	}
	return response.Success(c, "Listing form steps fetched successfully", out, fiber.Map{"listingType": t})
}

// StartDraft POST /api/v1/listing-drafts
func (h *Handlers) StartDraft(c *fiber.Ctx) error {
	d, err := h.Drafts.Start(c.UserContext(), middleware.SubjectID(c))
	if err != nil {
		return writeError(c, err)
	}
	return response.SuccessCreated(c, "Draft started", d.View(), nil)
}

// GetDraft GET /api/v1/listing-drafts/:id
func (h *Handlers) GetDraft(c *fiber.Ctx) error {
	d, err := h.Drafts.Get(c.UserContext(), middleware.SubjectID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Draft fetched successfully", d.View(), nil)
}

// UpdateDraft PATCH /api/v1/listing-drafts/:id: { listingType?, fields?, move? }
func (h *Handlers) UpdateDraft(c *fiber.Ctx) error {
	var p listingform.Patch
	if err := json.Unmarshal(c.Body(), &p); err != nil {
		return response.ValidationFailed(c, "Invalid request body", nil)
	}
	d, err := h.Drafts.Update(c.UserContext(), middleware.SubjectID(c), c.Params("id"), p)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Draft updated successfully", d.View(), nil)
}

// SubmitDraft POST /api/v1/listing-drafts/:id/submit: one create with full validation
func (h *Handlers) SubmitDraft(c *fiber.Ctx) error {
	res, err := h.Drafts.Submit(c.UserContext(), middleware.SubjectID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return response.SuccessCreated(c, "Listing created successfully", res, nil)
}

// DiscardDraft DELETE /api/v1/listing-drafts/:id
func (h *Handlers) DiscardDraft(c *fiber.Ctx) error {
	if err := h.Drafts.Discard(c.UserContext(), middleware.SubjectID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Draft discarded", fiber.Map{"id": c.Params("id")}, nil)
}

func writeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, listingform.ErrDraftNotFound) {
		return response.Error(c, listingform.ErrDraftNotFound.Error(), fiber.StatusNotFound, nil)
	}
	return response.FromError(c, err)
}
