package user

import (
	"context"
	"strings"
	"time"
	"unicode"

	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/infrastructure/database"
	"marketplace-backend/internal/pkg/constants"
	"marketplace-backend/internal/pkg/validation"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service holds the store for user operations.
type Service struct {
	DB           *gorm.DB
	StoreTimeout time.Duration
}

// SyncInput is what the client may set about itself. UID always comes from the verified token.
type SyncInput struct {
	UID         string  `json:"-" validate:"required"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Name        string  `json:"name" validate:"max=120"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,e164"`
	Role        string  `json:"role" validate:"omitempty,role"`
}

// Sync creates or updates the user keyed by uid. Repeating the same call is a no-op apart
// from updatedAt. hasListings is never written here.
func (s *Service) Sync(ctx context.Context, in SyncInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Name = titleCaseAndNormalize(in.Name)
	if bad := validation.Fields(in); len(bad) > 0 {
		return nil, &domain.ValidationError{Message: "Invalid user fields", Fields: bad}
	}

	ctx, cancel := database.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	now := time.Now()
	u := &domain.User{
		UID:         in.UID,
		Email:       in.Email,
		Name:        in.Name,
		PhoneNumber: in.PhoneNumber,
		Role:        in.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if u.Role == "" {
		u.Role = constants.RoleGuest
	}

	updates := map[string]interface{}{"updated_at": now}
	if in.Email != "" {
		updates["email"] = in.Email
	}
	if in.Name != "" {
		updates["name"] = in.Name
	}
	if in.PhoneNumber != nil {
		updates["phone_number"] = *in.PhoneNumber
	}
	if in.Role != "" {
		updates["role"] = in.Role
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(u).Error
	if err != nil {
		return nil, database.StoreError(err, "Failed to sync user")
	}

	var out domain.User
	if err := db.Where("uid = ?", in.UID).First(&out).Error; err != nil {
		return nil, database.StoreError(err, "Failed to load user")
	}
	return &out, nil
}

// Get returns the user by uid or domain.ErrUserNotFound.
func (s *Service) Get(ctx context.Context, uid string) (*domain.User, error) {
	if uid == "" {
		return nil, domain.ErrUnauthenticated
	}
	ctx, cancel := database.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	var u domain.User
	err := s.DB.WithContext(ctx).Where("uid = ?", uid).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, database.StoreError(err, "Failed to load user")
	}
	return &u, nil
}

// Delete removes the user. It is refused while any listing still names the user as owner,
// so listings never point at a missing owner.
func (s *Service) Delete(ctx context.Context, uid string) error {
	if uid == "" {
		return domain.ErrUnauthenticated
	}
	ctx, cancel := database.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&domain.Listing{}).Where("owner_user_id = ?", uid).Count(&owned).Error; err != nil {
			return database.StoreError(err, "Failed to count listings")
		}
		if owned > 0 {
			return domain.ErrUserHasListings
		}
		res := tx.Where("uid = ?", uid).Delete(&domain.User{})
		if res.Error != nil {
			return database.StoreError(res.Error, "Failed to delete user")
		}
		if res.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}

func titleCaseAndNormalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	capitalize := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !capitalize {
				b.WriteRune(' ')
				capitalize = true
			}
			continue
		}
		if capitalize {
			b.WriteRune(unicode.ToUpper(r))
			capitalize = false
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
