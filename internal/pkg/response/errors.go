package response

import (
	"marketplace-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// FromError renders a service error with its status: validation 400, unauthenticated 401,
// not found 404, slug conflicts and owned listings 409, upstream 503, anything else 500.
func FromError(c *fiber.Ctx, err error) error {
	if ve, ok := domain.AsValidationError(err); ok {
		return ValidationFailed(c, ve.Message, ve.Fields)
	}
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return Unauthorized(c, "Unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		return Error(c, domain.ErrNotFound.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, domain.ErrUserNotFound):
		return Error(c, domain.ErrUserNotFound.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, domain.ErrSlugExhausted):
		return Error(c, domain.ErrSlugExhausted.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, domain.ErrSlugConflict):
		return Error(c, domain.ErrSlugConflict.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, domain.ErrUserHasListings):
		return Error(c, domain.ErrUserHasListings.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		log.Warn().Err(err).Str("path", c.Path()).Msg("upstream unavailable")
		return Error(c, domain.ErrUpstreamUnavailable.Error(), fiber.StatusServiceUnavailable, nil)
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("unhandled service error")
	return Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
