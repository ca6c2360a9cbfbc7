package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrStoreUnavailable is returned by the Unavailable variant.
var ErrStoreUnavailable = errors.New("image store unavailable")

const (
	maxImageBytes  = 10 << 20
	presignExpiry  = 7 * 24 * time.Hour
	defaultType    = "image/jpeg"
	defaultRegion  = "us-east-1"
	themeKeyPrefix = "themes"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ImageStore copies a remote cover image into storage we control and returns its URL.
type ImageStore interface {
	Mirror(ctx context.Context, themeID, photoID, sourceURL string) (string, error)
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL, when set, is used to build stable object URLs instead of presigned ones.
	PublicBaseURL string
}

type S3Store struct {
	client        *minio.Client
	httpClient    *http.Client
	bucketName    string
	region        string
	publicBaseURL string
	initOnce      sync.Once
	initErr       error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Store{
		client:        client,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		bucketName:    bucket,
		region:        region,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
	}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Mirror downloads sourceURL and stores it under themes/<themeID>/<photoID>.
func (s *S3Store) Mirror(ctx context.Context, themeID, photoID, sourceURL string) (string, error) {
	themeID = strings.TrimSpace(themeID)
	photoID = strings.TrimSpace(photoID)
	if themeID == "" || photoID == "" {
		return "", fmt.Errorf("theme id and photo id are required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	content, contentType, err := fetch(ctx, s.httpClient, sourceURL)
	if err != nil {
		return "", err
	}

	key := objectKey(themeID, photoID, contentType)
	_, err = s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=604800",
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + s.bucketName + "/" + key, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

// fetch downloads an image, refusing non-image bodies and anything over maxImageBytes.
func fetch(ctx context.Context, client *http.Client, sourceURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download image: source returned %d", resp.StatusCode)
	}

	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if contentType == "" {
		contentType = defaultType
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("download image: unexpected content type %q", contentType)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	if len(content) > maxImageBytes {
		return nil, "", fmt.Errorf("download image: larger than %d bytes", maxImageBytes)
	}
	return content, contentType, nil
}

func objectKey(themeID, photoID, contentType string) string {
	ext := ".jpg"
	switch contentType {
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	}
	clean := func(s string) string {
		return strings.Trim(unsafeKeyChars.ReplaceAllString(s, "-"), "-.")
	}
	return path.Join(themeKeyPrefix, clean(themeID), clean(photoID)+ext)
}

// Unavailable stands in when no bucket is configured.
type Unavailable struct{}

func (Unavailable) Mirror(context.Context, string, string, string) (string, error) {
	return "", ErrStoreUnavailable
}
