package database

import (
	"context"
	"database/sql/driver"
	"net"
	"strings"
	"time"

	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/pkg/metrics"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN (Supabase/Postgres pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") when using connection poolers (e.g. PgBouncer, Supabase, Render).
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{TranslateError: true})
}

// Models is every table the service owns, in migration order.
func Models() []interface{} {
	return []interface{}{&domain.User{}, &domain.Listing{}, &domain.SlugAlias{}, &domain.ListingEvent{}}
}

// AutoMigrate creates tables and indexes, including the (listing_type, slug) unique index.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// WithTimeout bounds a store call. d <= 0 leaves ctx unchanged.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// IsUniqueViolation reports a unique-constraint failure from postgres or sqlite,
// translated or not.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// IsUnavailable reports timeouts, cancellations and connectivity failures.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// StoreError wraps a store failure with op. Unavailability becomes domain.ErrUpstreamUnavailable.
func StoreError(err error, op string) error {
	if err == nil {
		return nil
	}
	if IsUnavailable(err) {
		metrics.ObserveUpstreamError("store")
		return errors.Wrapf(domain.ErrUpstreamUnavailable, "%s: %v", op, err)
	}
	return errors.Wrap(err, op)
}
