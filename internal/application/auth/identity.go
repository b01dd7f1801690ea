package auth

import (
	"context"
	"net"
	"time"

	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/pkg/metrics"

	"github.com/pkg/errors"
)

// Identity is the verified subject of a bearer token. UID is the only owner id the API trusts.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Verifier checks a bearer token with the identity provider.
// Invalid or expired tokens yield domain.ErrUnauthenticated; an unreachable or slow provider
// yields domain.ErrUpstreamUnavailable.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func unavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func upstreamError(err error) error {
	metrics.ObserveUpstreamError("identity")
	return errors.Wrapf(domain.ErrUpstreamUnavailable, "verify token: %v", err)
}
