package middleware

import (
	"strings"

	"marketplace-backend/internal/application/auth"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/pkg/constants"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// RequireAuth verifies the bearer token and stores the identity in Locals.
// Missing or rejected tokens get 401; an unreachable identity provider gets 503.
func RequireAuth(v auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		id, err := v.Verify(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUpstreamUnavailable) {
				log.Warn().Err(err).Str("trace_id", GetTraceID(c)).Msg("identity provider unavailable")
				return response.Error(c, "Identity provider unavailable", fiber.StatusServiceUnavailable, nil)
			}
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals(constants.LocalsIdentity, id)
		return c.Next()
	}
}

// GetIdentity returns the verified identity (nil on public routes).
func GetIdentity(c *fiber.Ctx) *auth.Identity {
	id, _ := c.Locals(constants.LocalsIdentity).(*auth.Identity)
	return id
}

// SubjectID is the verified uid, or "" when the request is anonymous.
func SubjectID(c *fiber.Ctx) string {
	if id := GetIdentity(c); id != nil {
		return id.UID
	}
	return ""
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
