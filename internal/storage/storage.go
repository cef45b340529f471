// Package storage persists finished video artifacts and yields the stable
// URL a client retrieves them by. Two interchangeable backends exist: a local
// directory served by the API process, and a MinIO bucket returning presigned
// URLs.
package storage

import (
	"context"
	"fmt"

	"github.com/keerthanap8898/TextToVideoAPI/internal/infra"
)

// Publisher persists an artifact under a suggested name and returns its
// result URL. Publishing the same name twice overwrites the previous object;
// re-running a job is safe.
type Publisher interface {
	Publish(ctx context.Context, name string, data []byte) (string, error)
}

// FromConfig selects the configured backend.
func FromConfig(cfg *infra.Config) (Publisher, error) {
	if cfg.UseMinio {
		store, err := NewMinioStore(MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			URLExpiry: cfg.MinioURLExpiry,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: configure minio: %w", err)
		}
		return store, nil
	}
	store, err := NewFileStore(cfg.OutDir, cfg.VideoBaseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: configure filesystem: %w", err)
	}
	return store, nil
}
