package user

import (
	"context"
	"testing"

	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return &Service{DB: db}, db
}

func TestSync_CreatesThenUpdates(t *testing.T) {
	svc, db := setupUserService(t)
	ctx := context.Background()

	u, err := svc.Sync(ctx, SyncInput{UID: "uid-1", Email: " Ana@Example.com ", Name: "ana  maria"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "Ana Maria", u.Name)
	assert.Equal(t, "guest", u.Role)
	assert.False(t, u.HasListings)

	phone := "+351912345678"
	u, err = svc.Sync(ctx, SyncInput{UID: "uid-1", PhoneNumber: &phone, Role: "provider"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "Ana Maria", u.Name)
	assert.Equal(t, "provider", u.Role)
	require.NotNil(t, u.PhoneNumber)
	assert.Equal(t, phone, *u.PhoneNumber)

	var n int64
	require.NoError(t, db.Model(&domain.User{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestSync_KeepsHasListings(t *testing.T) {
	svc, db := setupUserService(t)
	require.NoError(t, db.Create(&domain.User{UID: "uid-1", Role: "provider", HasListings: true}).Error)

	u, err := svc.Sync(context.Background(), SyncInput{UID: "uid-1", Name: "Bo"})
	require.NoError(t, err)
	assert.True(t, u.HasListings)
	assert.Equal(t, "provider", u.Role)
}

func TestSync_RejectsInvalidFields(t *testing.T) {
	svc, _ := setupUserService(t)
	bad := "123"
	_, err := svc.Sync(context.Background(), SyncInput{UID: "uid-1", Email: "nope", Role: "admin", PhoneNumber: &bad})
	ve, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"email", "role", "phoneNumber"}, ve.Fields)
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := setupUserService(t)
	_, err := svc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDelete_RefusedWhileListingsExist(t *testing.T) {
	svc, db := setupUserService(t)
	ctx := context.Background()
	require.NoError(t, db.Create(&domain.User{UID: "uid-1", Role: "provider", HasListings: true}).Error)
	l := domain.NewListing(domain.ListingTypeService)
	l.Slug, l.Title, l.Description, l.Address, l.OwnerUserID = "s", "S", "d", "a", "uid-1"
	require.NoError(t, db.Create(l).Error)

	assert.ErrorIs(t, svc.Delete(ctx, "uid-1"), domain.ErrUserHasListings)

	require.NoError(t, db.Delete(l).Error)
	require.NoError(t, svc.Delete(ctx, "uid-1"))
	assert.ErrorIs(t, svc.Delete(ctx, "uid-1"), domain.ErrUserNotFound)
}
