package auth

import (
	"context"
	"time"

	"marketplace-backend/internal/domain"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier verifies Firebase ID tokens.
type FirebaseVerifier struct {
	client  idTokenVerifier
	timeout time.Duration
}

// NewFirebaseVerifier builds the Firebase auth client. credentialsFile may be empty to use
// application default credentials.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string, timeout time.Duration) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get auth client")
	}
	return &FirebaseVerifier{client: client, timeout: timeout}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	ctx, cancel := withTimeout(ctx, v.timeout)
	defer cancel()

	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		// Only transport, deadline and key-fetch failures are the provider's fault.
		if unavailable(err) || ctx.Err() != nil || fbauth.IsCertificateFetchFailed(err) {
			return nil, upstreamError(err)
		}
		if !fbauth.IsIDTokenInvalid(err) && !fbauth.IsIDTokenExpired(err) && !fbauth.IsIDTokenRevoked(err) {
			log.Warn().Err(err).Msg("firebase token rejected")
		}
		return nil, domain.ErrUnauthenticated
	}
	if tok.UID == "" {
		return nil, domain.ErrUnauthenticated
	}
	id := &Identity{UID: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := tok.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}
