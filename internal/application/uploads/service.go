package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/pkg/constants"
	"marketplace-backend/internal/pkg/metrics"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SignedURLExpiry is how long a signed upload URL stays valid.
const SignedURLExpiry = time.Hour

var allowedImageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// StorageClient defines what we need from the blob store.
type StorageClient interface {
	CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error)
}

// HTTPClient is a StorageClient backed by the Supabase storage REST API.
type HTTPClient struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type signedUploadResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"`
}

func (c *HTTPClient) CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error) {
	if c.BaseURL == "" {
		return "", errors.New("storage: SUPABASE_URL is not set")
	}
	if c.SecretKey == "" {
		return "", errors.New("storage: SUPABASE_SECRET_KEY is not set")
	}
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	base := strings.TrimRight(c.BaseURL, "/")
	url := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", base, bucket, objectPath)

	body, err := json.Marshal(map[string]interface{}{
		"expiresIn": int(SignedURLExpiry.Seconds()),
		"upsert":    false,
	})
	if err != nil {
		return "", errors.Wrap(err, "storage: encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "storage: build request")
	}
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 500 {
		return "", errors.Wrapf(domain.ErrUpstreamUnavailable, "storage: status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Errorf("storage: status %d body: %s", resp.StatusCode, string(raw))
	}

	var data signedUploadResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", errors.Wrap(err, "storage: decode response")
	}
	switch {
	case data.SignedURL != "":
		return data.SignedURL, nil
	case data.SignedURLSnake != "":
		return data.SignedURLSnake, nil
	case data.URL != "":
		// relative, e.g. /object/upload/sign/...?token=...
		u := data.URL
		if !strings.HasPrefix(u, "/") {
			u = "/" + u
		}
		if !strings.HasPrefix(u, "/storage/v1") {
			u = "/storage/v1" + u
		}
		return base + u, nil
	}
	return "", errors.Errorf("storage: no signed URL in response: %s", string(raw))
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return errors.Wrapf(domain.ErrUpstreamUnavailable, "storage: %v", err)
	}
	return errors.Wrap(err, "storage request")
}

// Service signs uploads of listing gallery images.
type Service struct {
	Client      StorageClient
	SupabaseURL string
	Timeout     time.Duration
	// Now is overridable in tests.
	Now func() time.Time
}

// UploadResult is what the client needs to PUT the file and then reference it in images.
type UploadResult struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

// SignListingImage issues a signed upload URL for an image owned by ownerUID.
func (s *Service) SignListingImage(ctx context.Context, ownerUID, fileName string) (*UploadResult, error) {
	if ownerUID == "" {
		return nil, domain.ErrUnauthenticated
	}
	name, err := sanitizeFileName(fileName)
	if err != nil {
		return nil, err
	}
	objectPath := fmt.Sprintf("%s/%d-%s", ownerUID, s.now().UnixMilli(), name)
	return s.GetSignedUploadURL(ctx, constants.ListingImagesBucket, objectPath)
}

// GetSignedUploadURL signs objectPath in bucket and derives its public URL.
func (s *Service) GetSignedUploadURL(ctx context.Context, bucket, objectPath string) (*UploadResult, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	signedURL, err := s.Client.CreateSignedUploadURL(ctx, bucket, objectPath)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			metrics.ObserveUpstreamError("storage")
		}
		log.Error().Err(err).Str("bucket", bucket).Msg("upload: failed to generate signed URL")
		return nil, err
	}
	publicBase := strings.TrimRight(s.SupabaseURL, "/")
	return &UploadResult{
		UploadURL: signedURL,
		PublicURL: fmt.Sprintf("%s/storage/v1/object/public/%s/%s", publicBase, bucket, objectPath),
		Path:      objectPath,
	}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// sanitizeFileName lowercases the name, drops directories and replaces unsafe runs with "-".
func sanitizeFileName(fileName string) (string, error) {
	invalid := &domain.ValidationError{Message: "A .jpg, .jpeg, .png, .webp or .gif file name is required", Fields: []string{"fileName"}}
	name := strings.ToLower(strings.TrimSpace(path.Base(strings.ReplaceAll(fileName, "\\", "/"))))
	if name == "" || name == "." || name == "/" {
		return "", invalid
	}
	if !allowedImageExt[path.Ext(name)] {
		return "", invalid
	}
	name = strings.Trim(unsafeNameChars.ReplaceAllString(name, "-"), "-")
	if strings.HasPrefix(name, ".") || name == "" {
		return "", invalid
	}
	return name, nil
}
