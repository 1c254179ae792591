package services

import (
	"bytes"
	"context"
	"net/url"
	"time"

	"github.com/docflow-io/docflow/backend/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageService wraps the MinIO client for document objects.
type StorageService struct {
	client *minio.Client
	bucket string
}

func NewStorageService(cfg *config.StorageConfig) (*StorageService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &StorageService{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the configured bucket if it does not exist yet.
func (s *StorageService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

// PutObject uploads document bytes under the given key.
func (s *StorageService) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	opts := minio.PutObjectOptions{}
	if contentType != "" {
		opts.ContentType = contentType
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	return err
}

// RemoveObject deletes an object.
func (s *StorageService) RemoveObject(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// PresignGet returns a time-limited download URL for an object.
func (s *StorageService) PresignGet(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, 15*time.Minute, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Bucket returns the configured bucket name.
func (s *StorageService) Bucket() string {
	return s.bucket
}
