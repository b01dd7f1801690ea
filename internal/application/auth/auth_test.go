package auth

import (
	"context"
	"net"
	"testing"
	"time"

	"marketplace-backend/internal/domain"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v, err := NewJWTVerifier("s3cret", "")
	require.NoError(t, err)
	tok, err := v.Issue("uid-1", "ana@example.com", "Ana", time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UID: "uid-1", Email: "ana@example.com", Name: "Ana"}, id)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v, err := NewJWTVerifier("s3cret", "marketplace")
	require.NoError(t, err)
	other, err := NewJWTVerifier("other", "marketplace")
	require.NoError(t, err)

	expired, err := v.Issue("uid-1", "", "", -time.Minute)
	require.NoError(t, err)
	forged, err := other.Issue("uid-1", "", "", time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "uid-1", Issuer: "elsewhere", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.token",
		"expired":      expired,
		"forged":       forged,
		"wrong issuer": wrongIssuer,
	} {
		_, err := v.Verify(context.Background(), tok)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated, name)
	}
}

func TestNewJWTVerifier_RequiresSecret(t *testing.T) {
	_, err := NewJWTVerifier("", "")
	assert.Error(t, err)
}

type fakeFirebase struct {
	token *fbauth.Token
	err   error
	block bool
}

func (f *fakeFirebase) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.token, f.err
}

func TestFirebaseVerifier_MapsToken(t *testing.T) {
	v := &FirebaseVerifier{client: &fakeFirebase{token: &fbauth.Token{
		UID:    "fb-uid",
		Claims: map[string]interface{}{"email": "bo@example.com", "name": "Bo"},
	}}}
	id, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "fb-uid", id.UID)
	assert.Equal(t, "bo@example.com", id.Email)
	assert.Equal(t, "Bo", id.Name)
}

func TestFirebaseVerifier_TimeoutIsUpstreamUnavailable(t *testing.T) {
	v := &FirebaseVerifier{client: &fakeFirebase{block: true}, timeout: 10 * time.Millisecond}
	_, err := v.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestFirebaseVerifier_TransportFailureIsUpstreamUnavailable(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	v := &FirebaseVerifier{client: &fakeFirebase{err: dialErr}}
	_, err := v.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestFirebaseVerifier_UnrecognisedRejectionIsUnauthenticated(t *testing.T) {
	v := &FirebaseVerifier{client: &fakeFirebase{err: errors.New("ID token has no \"sub\" claim")}}
	_, err := v.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.NotErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestFirebaseVerifier_EmptyToken(t *testing.T) {
	v := &FirebaseVerifier{client: &fakeFirebase{}}
	_, err := v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
