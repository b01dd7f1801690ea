package auth

import (
	"context"
	"time"

	"marketplace-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims carried by locally signed tokens.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier verifies HMAC-signed tokens; used in development and tests in place of Firebase.
type JWTVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(secret, issuer string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required when AUTH_PROVIDER=jwt")
	}
	if issuer == "" {
		issuer = "marketplace"
	}
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}, nil
}

// Issue signs a token for uid valid for ttl.
func (v *JWTVerifier) Issue(uid, email, name string, ttl time.Duration) (string, error) {
	if uid == "" {
		return "", errors.New("uid required")
	}
	now := time.Now()
	claims := Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	if err := ctx.Err(); err != nil {
		return nil, upstreamError(err)
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthenticated
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	return &Identity{UID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}
