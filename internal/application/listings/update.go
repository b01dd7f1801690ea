package listings

import (
	"context"
	"encoding/json"
	"sort"

	"marketplace-backend/internal/application/slug"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/infrastructure/database"
	"marketplace-backend/internal/pkg/metrics"
	"marketplace-backend/internal/pkg/validation"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type UpdateResult struct {
	Slug    string          `json:"newSlug"`
	Listing *domain.Listing `json:"listing"`
}

// Update applies a partial patch to the listing (t, slugValue) owned by ownerUID.
// A listing owned by someone else is reported as domain.ErrNotFound. A title change
// re-resolves the slug and keeps the old one as an alias.
func (s *Service) Update(ctx context.Context, t domain.ListingType, slugValue, ownerUID string, patch domain.ListingFields) (*UpdateResult, error) {
	if ownerUID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if patch.ListingType != nil {
		if pt, ok := domain.ParseListingType(*patch.ListingType); !ok || pt != t {
			return nil, &domain.ValidationError{Message: "Listing type cannot be changed", Fields: []string{domain.FieldListingType}}
		}
	}
	if bad := validation.Fields(patch); len(bad) > 0 {
		return nil, &domain.ValidationError{Message: "Invalid field values", Fields: bad}
	}

	for attempt := 1; ; attempt++ {
		res, err := s.updateOnce(ctx, t, slugValue, ownerUID, patch)
		if err == nil {
			metrics.ObserveListingMutation("update", string(t), "ok")
			return res, nil
		}
		if !database.IsUniqueViolation(err) {
			metrics.ObserveListingMutation("update", string(t), "error")
			return nil, err
		}
		if attempt >= maxWriteAttempts {
			metrics.ObserveListingMutation("update", string(t), "conflict")
			return nil, errors.Wrapf(domain.ErrSlugConflict, "after %d attempts", attempt)
		}
		metrics.IncSlugRetry()
		log.Warn().Str("slug", slugValue).Int("attempt", attempt).Msg("slug taken concurrently, retrying update")
	}
}

func (s *Service) updateOnce(ctx context.Context, t domain.ListingType, slugValue, ownerUID string, patch domain.ListingFields) (*UpdateResult, error) {
	ctx, cancel := database.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, database.StoreError(tx.Error, "begin update")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	listing, err := findOwned(tx, t, slugValue, ownerUID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	oldSlug := listing.Slug

	patch.Apply(listing)
	if err := domain.Validate(listing); err != nil {
		tx.Rollback()
		return nil, err
	}

	if patch.Title != nil {
		base := slug.Normalize(listing.Title)
		taken, err := takenSlugs(tx, t, base, listing.ID)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		resolved, err := s.resolver().Resolve(base, taken.Has)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		listing.Slug = resolved
	}

	if err := tx.Save(listing).Error; err != nil {
		tx.Rollback()
		if database.IsUniqueViolation(err) {
			return nil, err
		}
		return nil, database.StoreError(err, "Failed to update listing")
	}

	eventType := domain.EventUpdated
	data := map[string]interface{}{"fields": patchedFields(patch)}
	if listing.Slug != oldSlug {
		eventType = domain.EventRenamed
		data["from"] = oldSlug
		data["to"] = listing.Slug
		if err := moveAlias(tx, listing, oldSlug); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := recordEvent(tx, listing.ID, eventType, ownerUID, data); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, database.StoreError(err, "Failed to update listing")
	}
	return &UpdateResult{Slug: listing.Slug, Listing: listing}, nil
}

// Delete removes the listing (t, slugValue) owned by ownerUID together with its aliases and
// recomputes the owner's hasListings in the same transaction.
func (s *Service) Delete(ctx context.Context, t domain.ListingType, slugValue, ownerUID string) error {
	if ownerUID == "" {
		return domain.ErrUnauthenticated
	}
	ctx, cancel := database.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return database.StoreError(tx.Error, "begin delete")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	listing, err := findOwned(tx, t, slugValue, ownerUID)
	if err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("listing_id = ?", listing.ID).Delete(&domain.SlugAlias{}).Error; err != nil {
		tx.Rollback()
		return database.StoreError(err, "Failed to delete slug aliases")
	}
	if err := tx.Delete(listing).Error; err != nil {
		tx.Rollback()
		return database.StoreError(err, "Failed to delete listing")
	}
	if err := refreshHasListings(tx, ownerUID); err != nil {
		tx.Rollback()
		return err
	}
	if err := recordEvent(tx, listing.ID, domain.EventDeleted, ownerUID, map[string]interface{}{
		"slug":  listing.Slug,
		"title": listing.Title,
	}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return database.StoreError(err, "Failed to delete listing")
	}
	metrics.ObserveListingMutation("delete", string(t), "ok")
	log.Info().Str("listing_id", listing.ID.String()).Str("slug", listing.Slug).Msg("listing deleted")
	return nil
}

func findOwned(db *gorm.DB, t domain.ListingType, slugValue, ownerUID string) (*domain.Listing, error) {
	var listing domain.Listing
	err := db.Where("listing_type = ? AND slug = ? AND owner_user_id = ?", t, slugValue, ownerUID).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, database.StoreError(err, "Failed to fetch listing")
	}
	return &listing, nil
}

// moveAlias records oldSlug as an alias and drops any alias equal to the new slug, which
// happens when a listing is renamed back to an earlier title.
func moveAlias(tx *gorm.DB, listing *domain.Listing, oldSlug string) error {
	if err := tx.Where("listing_type = ? AND slug = ? AND listing_id = ?", listing.ListingType, listing.Slug, listing.ID).
		Delete(&domain.SlugAlias{}).Error; err != nil {
		return database.StoreError(err, "Failed to update slug aliases")
	}
	alias := domain.SlugAlias{ListingType: listing.ListingType, Slug: oldSlug, ListingID: listing.ID}
	if err := tx.Create(&alias).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return err
		}
		return database.StoreError(err, "Failed to record slug alias")
	}
	return nil
}

// patchedFields lists the wire names present in patch, sorted.
func patchedFields(patch domain.ListingFields) []string {
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
