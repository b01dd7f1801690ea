package listingevents

import (
	"context"
	"time"

	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/infrastructure/database"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Service struct {
	DB           *gorm.DB
	StoreTimeout time.Duration
}

// ListForListing returns the history of the listing (t, slug), oldest first. Only the owner may
// read it; anyone else gets domain.ErrNotFound.
func (s *Service) ListForListing(ctx context.Context, t domain.ListingType, slug, ownerUID string) ([]domain.ListingEvent, error) {
	if ownerUID == "" {
		return nil, domain.ErrUnauthenticated
	}
	ctx, cancel := database.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	var listing domain.Listing
	err := db.Select("id").Where("listing_type = ? AND slug = ? AND owner_user_id = ?", t, slug, ownerUID).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, database.StoreError(err, "Failed to fetch listing")
	}

	var events []domain.ListingEvent
	if err := db.Where("listing_id = ?", listing.ID).Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, database.StoreError(err, "Failed to fetch listing events")
	}
	return events, nil
}

// ListByActor returns every event the user caused, newest first, including events of deleted listings.
func (s *Service) ListByActor(ctx context.Context, actorUID string) ([]domain.ListingEvent, error) {
	if actorUID == "" {
		return nil, domain.ErrUnauthenticated
	}
	ctx, cancel := database.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	var events []domain.ListingEvent
	if err := s.DB.WithContext(ctx).Where("actor_user_id = ?", actorUID).Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, database.StoreError(err, "Failed to fetch listing events")
	}
	return events, nil
}
