// Package storage persists uploaded KYC documents in S3-compatible object
// storage and hands back durable URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mxe-wallet/mxe_wallet/internal/config"
)

const (
	// BucketIDCard holds national ID card scans submitted for review.
	BucketIDCard = "id-card"
	// BucketAvatar holds profile pictures.
	BucketAvatar = "avatar"
)

// Uploader stores a document and returns the URL it is reachable at.
type Uploader interface {
	Upload(ctx context.Context, bucket, name, contentType string, r io.Reader, size int64) (string, error)
}

// MinioStore implements Uploader on top of a MinIO/S3 endpoint.
type MinioStore struct {
	client   *minio.Client
	endpoint string
	useSSL   bool
}

// NewMinioStore connects to the configured object storage endpoint.
func NewMinioStore(cfg config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}
	return &MinioStore{client: client, endpoint: cfg.StorageEndpoint, useSSL: cfg.StorageUseSSL}, nil
}

// EnsureBuckets creates the application buckets when they do not exist yet.
func (s *MinioStore) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{BucketIDCard, BucketAvatar} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// Upload writes the object and returns its public URL.
func (s *MinioStore) Upload(ctx context.Context, bucket, name, contentType string, r io.Reader, size int64) (string, error) {
	info, err := s.client.PutObject(ctx, bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, name, err)
	}
	return s.objectURL(info.Bucket, info.Key), nil
}

func (s *MinioStore) objectURL(bucket, key string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, bucket, key)
}

// ObjectName builds a collision-resistant object key from the original
// filename, mirroring how uploads are keyed in the product.
func ObjectName(original string) string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), original)
}
