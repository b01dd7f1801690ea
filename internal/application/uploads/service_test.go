package uploads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	lastBucket string
	lastPath   string
	err        error
}

func (f *fakeClient) CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error) {
	f.lastBucket = bucket
	f.lastPath = objectPath
	if f.err != nil {
		return "", f.err
	}
	return "https://example.com/upload", nil
}

func setupUploadService(t *testing.T) (*Service, *fakeClient) {
	client := &fakeClient{}
	return &Service{
		Client:      client,
		SupabaseURL: "https://example.supabase.co/",
		Now:         func() time.Time { return time.UnixMilli(1700000000000) },
	}, client
}

func TestSignListingImage_Success(t *testing.T) {
	svc, client := setupUploadService(t)

	res, err := svc.SignListingImage(context.Background(), "owner-1", "Sunny Loft.PNG")
	require.NoError(t, err)
	assert.Equal(t, "listing-images", client.lastBucket)
	assert.Equal(t, "owner-1/1700000000000-sunny-loft.png", client.lastPath)
	assert.Equal(t, "https://example.com/upload", res.UploadURL)
	assert.Equal(t, "https://example.supabase.co/storage/v1/object/public/listing-images/owner-1/1700000000000-sunny-loft.png", res.PublicURL)
	assert.Equal(t, client.lastPath, res.Path)
}

func TestSignListingImage_StripsDirectories(t *testing.T) {
	svc, client := setupUploadService(t)

	_, err := svc.SignListingImage(context.Background(), "owner-1", `..\..\etc/cover.jpg`)
	require.NoError(t, err)
	assert.Equal(t, "owner-1/1700000000000-cover.jpg", client.lastPath)
}

func TestSignListingImage_RejectsBadNames(t *testing.T) {
	svc, client := setupUploadService(t)

	for _, name := range []string{"", "notes.txt", ".png", "archive"} {
		_, err := svc.SignListingImage(context.Background(), "owner-1", name)
		ve, ok := domain.AsValidationError(err)
		require.True(t, ok, name)
		assert.Equal(t, []string{"fileName"}, ve.Fields)
	}
	assert.Empty(t, client.lastBucket)
}

func TestSignListingImage_RequiresOwner(t *testing.T) {
	svc, _ := setupUploadService(t)
	_, err := svc.SignListingImage(context.Background(), "", "a.png")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestSignListingImage_ClientUnavailable(t *testing.T) {
	svc, client := setupUploadService(t)
	client.err = domain.ErrUpstreamUnavailable

	_, err := svc.SignListingImage(context.Background(), "owner-1", "a.png")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestHTTPClient_SignedURL(t *testing.T) {
	var gotPath, gotKey, gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"url":"/object/upload/sign/listing-images/a.png?token=t"}`))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "secret"}
	url, err := c.CreateSignedUploadURL(context.Background(), "listing-images", "a.png")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/upload/sign/listing-images/a.png?token=t", url)
	assert.Equal(t, "/storage/v1/object/upload/sign/listing-images/a.png", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, float64(3600), gotBody["expiresIn"])
}

func TestHTTPClient_ServerErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "secret"}
	_, err := c.CreateSignedUploadURL(context.Background(), "listing-images", "a.png")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestHTTPClient_ClientErrorIsNotUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Unauthorized"}`))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "anon"}
	_, err := c.CreateSignedUploadURL(context.Background(), "listing-images", "a.png")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "status 403")
}

func TestHTTPClient_MissingConfig(t *testing.T) {
	_, err := (&HTTPClient{SecretKey: "s"}).CreateSignedUploadURL(context.Background(), "b", "p")
	assert.Error(t, err)
	_, err = (&HTTPClient{BaseURL: "http://x"}).CreateSignedUploadURL(context.Background(), "b", "p")
	assert.Error(t, err)
}

func TestHTTPClient_CanceledContextIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "secret"}
	_, err := c.CreateSignedUploadURL(ctx, "listing-images", "a.png")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
