package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"marketplace-backend/internal/application/auth"
	usersvc "marketplace-backend/internal/application/user"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/infrastructure/database"
	"marketplace-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	if token == "bad" {
		return nil, domain.ErrUnauthenticated
	}
	return &auth.Identity{UID: token, Email: token + "@example.com", Name: "token name"}, nil
}

func setupUserTest(t *testing.T) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	h := &Handlers{Service: &usersvc.Service{DB: db}}
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	users := app.Group("/users", middleware.RequireAuth(stubVerifier{}))
	users.Post("/sync", h.SyncUser)
	users.Get("/me", h.GetMe)
	users.Delete("/me", h.DeleteMe)
	return app, db
}

func send(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestSyncUser_DefaultsFromToken(t *testing.T) {
	app, _ := setupUserTest(t)
	code, out := send(t, app, "POST", "/users/sync", "uid-1", nil)
	require.Equal(t, fiber.StatusOK, code)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "uid-1", data["uid"])
	assert.Equal(t, "uid-1@example.com", data["email"])
	assert.Equal(t, "Token Name", data["name"])
	assert.Equal(t, "guest", data["role"])
	assert.Equal(t, false, data["hasListings"])
}

func TestSyncUser_BodyCannotChooseUID(t *testing.T) {
	app, db := setupUserTest(t)
	code, _ := send(t, app, "POST", "/users/sync", "uid-1", map[string]interface{}{
		"uid": "uid-evil", "name": "ada lovelace", "role": "provider", "phoneNumber": "+447700900123",
	})
	require.Equal(t, fiber.StatusOK, code)

	var n int64
	db.Model(&domain.User{}).Where("uid = ?", "uid-evil").Count(&n)
	assert.Zero(t, n)
	var u domain.User
	require.NoError(t, db.Where("uid = ?", "uid-1").First(&u).Error)
	assert.Equal(t, "Ada Lovelace", u.Name)
	assert.Equal(t, "provider", u.Role)
}

func TestSyncUser_InvalidFields(t *testing.T) {
	app, _ := setupUserTest(t)
	code, out := send(t, app, "POST", "/users/sync", "uid-1", map[string]interface{}{"email": "nope", "role": "admin"})
	assert.Equal(t, fiber.StatusBadRequest, code)
	fields := out["error"].(map[string]interface{})["details"].(map[string]interface{})["fields"]
	assert.ElementsMatch(t, []interface{}{"email", "role"}, fields)
}

func TestGetMe(t *testing.T) {
	app, _ := setupUserTest(t)
	code, _ := send(t, app, "GET", "/users/me", "uid-1", nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	send(t, app, "POST", "/users/sync", "uid-1", nil)
	code, out := send(t, app, "GET", "/users/me", "uid-1", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "uid-1", out["data"].(map[string]interface{})["uid"])

	code, _ = send(t, app, "GET", "/users/me", "bad", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestDeleteMe_RefusedWhileOwningListings(t *testing.T) {
	app, db := setupUserTest(t)
	send(t, app, "POST", "/users/sync", "uid-1", nil)
	require.NoError(t, db.Create(&domain.Listing{
		ID: uuid.New(), ListingType: domain.ListingTypeService, Slug: "gig", Title: "Gig",
		Description: "d", Address: "a", OwnerUserID: "uid-1",
	}).Error)

	code, _ := send(t, app, "DELETE", "/users/me", "uid-1", nil)
	assert.Equal(t, fiber.StatusConflict, code)

	require.NoError(t, db.Where("owner_user_id = ?", "uid-1").Delete(&domain.Listing{}).Error)
	code, _ = send(t, app, "DELETE", "/users/me", "uid-1", nil)
	assert.Equal(t, fiber.StatusOK, code)
	code, _ = send(t, app, "DELETE", "/users/me", "uid-1", nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}
