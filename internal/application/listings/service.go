package listings

import (
	"context"
	"encoding/json"
	"time"

	"marketplace-backend/internal/application/slug"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/infrastructure/database"
	"marketplace-backend/internal/pkg/constants"
	"marketplace-backend/internal/pkg/metrics"
	"marketplace-backend/internal/pkg/retry"
	"marketplace-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// CategoryPageSize caps category listings; callers get the most recent N, not all.
	CategoryPageSize = 20
	// SearchPoolSize is how many recent listings a search filters over.
	SearchPoolSize = 200
	// maxWriteAttempts bounds retries after a (listing_type, slug) unique violation.
	maxWriteAttempts = 5
)

type Service struct {
	DB           *gorm.DB
	Slugs        *slug.Resolver
	StoreTimeout time.Duration
	// Retry applies to idempotent reads only.
	Retry *retry.Config
}

type CreateResult struct {
	ID   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
}

// Create validates in against the rule table and persists it owned by ownerUID.
// Slug resolution, the insert, the owner's hasListings flag and the CREATED event share one
// transaction; a unique violation on (listing_type, slug) rolls back and retries the attempt.
func (s *Service) Create(ctx context.Context, ownerUID string, in domain.ListingFields) (*CreateResult, error) {
	if ownerUID == "" {
		return nil, domain.ErrUnauthenticated
	}
	listing, err := BuildListing(in)
	if err != nil {
		return nil, err
	}
	listing.OwnerUserID = ownerUID
	base := slug.Normalize(listing.Title)

	for attempt := 1; ; attempt++ {
		err = s.createOnce(ctx, listing, base)
		if err == nil {
			metrics.ObserveListingMutation("create", string(listing.ListingType), "ok")
			log.Info().Str("listing_id", listing.ID.String()).Str("slug", listing.Slug).
				Str("listing_type", string(listing.ListingType)).Msg("listing created")
			return &CreateResult{ID: listing.ID, Slug: listing.Slug}, nil
		}
		if !database.IsUniqueViolation(err) {
			metrics.ObserveListingMutation("create", string(listing.ListingType), "error")
			return nil, err
		}
		if attempt >= maxWriteAttempts {
			metrics.ObserveListingMutation("create", string(listing.ListingType), "conflict")
			return nil, errors.Wrapf(domain.ErrSlugConflict, "after %d attempts", attempt)
		}
		metrics.IncSlugRetry()
		log.Warn().Str("base_slug", base).Int("attempt", attempt).Msg("slug taken concurrently, retrying create")
		listing.ID = uuid.Nil
	}
}

func (s *Service) createOnce(ctx context.Context, listing *domain.Listing, base string) error {
	ctx, cancel := database.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return database.StoreError(tx.Error, "begin create")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	taken, err := takenSlugs(tx, listing.ListingType, base, uuid.Nil)
	if err != nil {
		tx.Rollback()
		return err
	}
	resolved, err := s.resolver().Resolve(base, taken.Has)
	if err != nil {
		tx.Rollback()
		return err
	}
	listing.Slug = resolved

	if err := tx.Create(listing).Error; err != nil {
		tx.Rollback()
		if database.IsUniqueViolation(err) {
			return err
		}
		return database.StoreError(err, "Failed to create listing")
	}
	if err := markHasListings(tx, listing.OwnerUserID); err != nil {
		tx.Rollback()
		return err
	}
	if err := recordEvent(tx, listing.ID, domain.EventCreated, listing.OwnerUserID, map[string]interface{}{
		"slug":        listing.Slug,
		"title":       listing.Title,
		"listingType": listing.ListingType,
	}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return database.StoreError(err, "Failed to create listing")
	}
	return nil
}

// BuildListing turns wire fields into a listing and checks it; it never touches the store.
func BuildListing(in domain.ListingFields) (*domain.Listing, error) {
	if in.ListingType == nil {
		return nil, &domain.ValidationError{Message: "Missing required fields", Fields: []string{domain.FieldListingType}}
	}
	t, ok := domain.ParseListingType(*in.ListingType)
	if !ok {
		return nil, &domain.ValidationError{Message: "Invalid listing type", Fields: []string{domain.FieldListingType}}
	}
	if bad := validation.Fields(in); len(bad) > 0 {
		return nil, &domain.ValidationError{Message: "Invalid field values", Fields: bad}
	}
	listing := domain.NewListing(t)
	in.Apply(listing)
	if listing.Images == nil {
		listing.Images = []string{}
	}
	if err := domain.Validate(listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *Service) resolver() *slug.Resolver {
	if s.Slugs == nil {
		return slug.NewResolver(slug.DefaultMaxSuffix)
	}
	return s.Slugs
}

// takenSlugs collects every slug in t's partition that base or its suffixed forms could hit,
// from listings and from aliases of renamed listings. exclude drops one listing's own rows.
func takenSlugs(tx *gorm.DB, t domain.ListingType, base string, exclude uuid.UUID) (slug.Set, error) {
	var current []string
	q := tx.Model(&domain.Listing{}).Where("listing_type = ? AND (slug = ? OR slug LIKE ?)", t, base, base+"-%")
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Pluck("slug", &current).Error; err != nil {
		return nil, database.StoreError(err, "Failed to check slug")
	}

	var aliased []string
	q = tx.Model(&domain.SlugAlias{}).Where("listing_type = ? AND (slug = ? OR slug LIKE ?)", t, base, base+"-%")
	if exclude != uuid.Nil {
		q = q.Where("listing_id <> ?", exclude)
	}
	if err := q.Pluck("slug", &aliased).Error; err != nil {
		return nil, database.StoreError(err, "Failed to check slug aliases")
	}
	return slug.NewSet(append(current, aliased...)...), nil
}

// markHasListings upserts the owner row; a first listing may precede the user's own sync.
func markHasListings(tx *gorm.DB, uid string) error {
	now := time.Now()
	user := domain.User{UID: uid, Role: constants.RoleProvider, HasListings: true, CreatedAt: now, UpdatedAt: now}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"has_listings": true, "updated_at": now}),
	}).Create(&user).Error
	return database.StoreError(err, "Failed to update owner")
}

// refreshHasListings recomputes the flag from the listings table.
func refreshHasListings(tx *gorm.DB, uid string) error {
	var count int64
	if err := tx.Model(&domain.Listing{}).Where("owner_user_id = ?", uid).Count(&count).Error; err != nil {
		return database.StoreError(err, "Failed to count owner listings")
	}
	err := tx.Model(&domain.User{}).Where("uid = ?", uid).
		Updates(map[string]interface{}{"has_listings": count > 0, "updated_at": time.Now()}).Error
	return database.StoreError(err, "Failed to update owner")
}

func recordEvent(tx *gorm.DB, listingID uuid.UUID, eventType, actor string, data map[string]interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encode event data")
	}
	err = tx.Create(&domain.ListingEvent{
		ListingID:   listingID,
		EventType:   eventType,
		EventData:   datatypes.JSON(raw),
		ActorUserID: actor,
	}).Error
	return database.StoreError(err, "Failed to create listing event")
}
