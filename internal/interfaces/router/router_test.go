package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace-backend/internal/application/auth"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/infrastructure/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type tokenIsUID struct{}

func (tokenIsUID) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	return &auth.Identity{UID: token}, nil
}

type fakeStorage struct{}

func (fakeStorage) CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error) {
	return "https://storage.test/upload/" + bucket + "/" + objectPath + "?token=t", nil
}

func setupApp(t *testing.T) *fiber.App {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Config{
		AuthProvider:  config.AuthProviderJWT,
		SupabaseURL:   "https://storage.test",
		SlugMaxSuffix: 10,
		DraftTTL:      time.Hour,
	}
	return NewApp(cfg, Deps{DB: db, Rdb: rdb, Verifier: tokenIsUID{}, Storage: fakeStorage{}})
}

func send(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
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

func TestNewApp_ListingLifecycle(t *testing.T) {
	app := setupApp(t)

	code, out := send(t, app, "POST", "/api/v1/listings", "uid-1", map[string]interface{}{
		"listingType":     "service",
		"title":           "Home Cleaning Pro",
		"description":     "Deep cleaning",
		"serviceCategory": "Home Services",
		"address":         "12 Harbour St",
		"location":        map[string]float64{"lat": 51.5, "lng": -0.1},
	})
	require.Equal(t, fiber.StatusCreated, code, out)
	assert.Equal(t, "home-cleaning-pro", out["data"].(map[string]interface{})["slug"])

	code, _ = send(t, app, "GET", "/api/v1/listings/service/home-cleaning-pro", "", nil)
	assert.Equal(t, fiber.StatusOK, code)

	code, out = send(t, app, "GET", "/api/v1/listings", "uid-1", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 1, out["metadata"].(map[string]interface{})["count"])

	code, _ = send(t, app, "GET", "/api/v1/categories/services", "", nil)
	assert.Equal(t, fiber.StatusOK, code)

	code, _ = send(t, app, "GET", "/api/v1/search?type=service", "", nil)
	assert.Equal(t, fiber.StatusOK, code)

	code, _ = send(t, app, "GET", "/api/v1/listings/service/home-cleaning-pro/events", "uid-1", nil)
	assert.Equal(t, fiber.StatusOK, code)

	code, _ = send(t, app, "GET", "/api/v1/users/me/events", "uid-1", nil)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestNewApp_ProtectedRoutesNeedBearer(t *testing.T) {
	app := setupApp(t)
	for _, r := range []struct{ method, path string }{
		{"POST", "/api/v1/listings"},
		{"GET", "/api/v1/listings"},
		{"POST", "/api/v1/listing-drafts"},
		{"GET", "/api/v1/users/me"},
		{"POST", "/api/v1/uploads/listing-image"},
	} {
		code, _ := send(t, app, r.method, r.path, "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, code, r.method+" "+r.path)
	}

	code, _ := send(t, app, "GET", "/api/v1/listing-form/steps?type=stay", "", nil)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestNewApp_DraftsAndUploads(t *testing.T) {
	app := setupApp(t)

	code, out := send(t, app, "POST", "/api/v1/listing-drafts", "uid-1", nil)
	require.Equal(t, fiber.StatusCreated, code)
	id := out["data"].(map[string]interface{})["id"].(string)

	code, _ = send(t, app, "GET", "/api/v1/listing-drafts/"+id, "uid-1", nil)
	assert.Equal(t, fiber.StatusOK, code)

	code, out = send(t, app, "POST", "/api/v1/uploads/listing-image", "uid-1", map[string]string{"fileName": "Front.JPG"})
	require.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, out["data"].(map[string]interface{})["path"], "uid-1/")
}

func TestNewApp_HealthAndMetrics(t *testing.T) {
	app := setupApp(t)

	code, out := send(t, app, "GET", "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "ok", out["status"])

	code, _ = send(t, app, "GET", "/health/json", "", nil)
	assert.Equal(t, fiber.StatusOK, code)

	send(t, app, "GET", "/api/v1/listing-form/steps", "", nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "marketplace_http_requests_total"))
}

func TestCreateApp_RequiresStoreURLs(t *testing.T) {
	_, _, _, err := CreateApp(&config.Config{AuthProvider: config.AuthProviderJWT, JWTSecret: "s"})
	assert.Error(t, err)

	_, _, _, err = CreateApp(&config.Config{AuthProvider: config.AuthProviderJWT, JWTSecret: "s", DatabaseURL: "postgres://x"})
	assert.Error(t, err)
}
