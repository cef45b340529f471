package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore uploads artifacts into an object storage bucket and returns
// time-limited presigned URLs. The bucket must already exist.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

// MinioOptions configures the MinIO-backed publisher.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	URLExpiry time.Duration
}

// NewMinioStore initializes the object storage client. The endpoint may carry
// an http/https scheme; https selects TLS.
func NewMinioStore(opts MinioOptions) (*MinioStore, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("storage: bucket is required")
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	secure := strings.HasPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimRight(endpoint, "/")
	if endpoint == "" {
		return nil, errors.New("storage: endpoint is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: minio client: %w", err)
	}

	urlExpiry := opts.URLExpiry
	if urlExpiry <= 0 {
		urlExpiry = 24 * time.Hour
	}

	return &MinioStore{client: client, bucket: opts.Bucket, urlExpiry: urlExpiry}, nil
}

// Publish uploads the artifact and returns a presigned GET URL valid for the
// configured expiry. Uploading the same name again overwrites the object.
func (s *MinioStore) Publish(ctx context.Context, name string, data []byte) (string, error) {
	cleanName, err := sanitizeName(name)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.bucket, cleanName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "video/mp4",
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload object: %w", err)
	}

	signed, err := s.client.PresignedGetObject(ctx, s.bucket, cleanName, s.urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("storage: presign url: %w", err)
	}
	return signed.String(), nil
}

var _ Publisher = (*MinioStore)(nil)
