package listings

import (
	"context"

	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/infrastructure/database"
	"marketplace-backend/internal/pkg/retry"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Lookup is a public fetch result. Redirected is set when slug was an alias of a renamed
// listing; Listing.Slug is then the canonical slug.
type Lookup struct {
	Listing    *domain.Listing
	Redirected bool
}

// GetByOwner returns every listing owned by ownerUID, newest first.
func (s *Service) GetByOwner(ctx context.Context, ownerUID string) ([]domain.Listing, error) {
	if ownerUID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return read(ctx, s, "listings.get_by_owner", func(ctx context.Context) ([]domain.Listing, error) {
		var out []domain.Listing
		err := s.DB.WithContext(ctx).Where("owner_user_id = ?", ownerUID).Order("created_at DESC").Find(&out).Error
		if err != nil {
			return nil, database.StoreError(err, "Failed to fetch listings")
		}
		return out, nil
	})
}

// GetByTypeAndSlug returns exactly one listing or domain.ErrNotFound. Old slugs of renamed
// listings resolve through listing_slug_aliases.
func (s *Service) GetByTypeAndSlug(ctx context.Context, t domain.ListingType, slugValue string) (*Lookup, error) {
	return read(ctx, s, "listings.get_by_type_and_slug", func(ctx context.Context) (*Lookup, error) {
		db := s.DB.WithContext(ctx)
		var listing domain.Listing
		err := db.Where("listing_type = ? AND slug = ?", t, slugValue).First(&listing).Error
		if err == nil {
			return &Lookup{Listing: &listing}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, database.StoreError(err, "Failed to fetch listing")
		}

		var alias domain.SlugAlias
		err = db.Where("listing_type = ? AND slug = ?", t, slugValue).First(&alias).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		if err != nil {
			return nil, database.StoreError(err, "Failed to fetch listing alias")
		}
		err = db.Where("id = ?", alias.ListingID).First(&listing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		if err != nil {
			return nil, database.StoreError(err, "Failed to fetch listing")
		}
		return &Lookup{Listing: &listing, Redirected: true}, nil
	})
}

// ListCategory returns at most CategoryPageSize listings of type t, newest first.
func (s *Service) ListCategory(ctx context.Context, t domain.ListingType) ([]domain.Listing, error) {
	return s.recent(ctx, "listings.list_category", t, CategoryPageSize)
}

// SearchPool returns the recent listings a search filters over; t == "" spans every type.
func (s *Service) SearchPool(ctx context.Context, t domain.ListingType) ([]domain.Listing, error) {
	return s.recent(ctx, "listings.search_pool", t, SearchPoolSize)
}

func (s *Service) recent(ctx context.Context, op string, t domain.ListingType, limit int) ([]domain.Listing, error) {
	return read(ctx, s, op, func(ctx context.Context) ([]domain.Listing, error) {
		q := s.DB.WithContext(ctx).Order("created_at DESC").Limit(limit)
		if t != "" {
			q = q.Where("listing_type = ?", t)
		}
		var out []domain.Listing
		if err := q.Find(&out).Error; err != nil {
			return nil, database.StoreError(err, "Failed to fetch listings")
		}
		return out, nil
	})
}

// read runs an idempotent query under the store timeout, retrying only when the store
// was unavailable.
func read[T any](ctx context.Context, s *Service, op string, fn retry.Retryable[T]) (T, error) {
	cfg := s.Retry
	if cfg == nil {
		cfg = retry.DefaultConfig()
	}
	attemptCfg := *cfg
	attemptCfg.ShouldRetry = func(err error) bool { return errors.Is(err, domain.ErrUpstreamUnavailable) }

	out, err := retry.Do(ctx, &attemptCfg, op, func(ctx context.Context) (T, error) {
		ctx, cancel := database.WithTimeout(ctx, s.StoreTimeout)
		defer cancel()
		return fn(ctx)
	})
	if err != nil && !errors.Is(err, domain.ErrUpstreamUnavailable) && database.IsUnavailable(err) {
		err = database.StoreError(err, op)
	}
	return out, err
}
