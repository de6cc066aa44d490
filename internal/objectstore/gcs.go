package objectstore

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSStore keeps evidence in a Google Cloud Storage bucket.
type GCSStore struct {
	svc    *storage.Service
	bucket string
	logger *zap.Logger
}

// NewGCSStore connects to Cloud Storage. An empty credentialsFile falls back
// to application default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string, logger *zap.Logger) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}
	return &GCSStore{svc: svc, bucket: bucket, logger: logger}, nil
}

// BaseURL is the prefix of every public URL issued by this store.
func (s *GCSStore) BaseURL() string {
	return fmt.Sprintf("%s/%s", gcsPublicHost, s.bucket)
}

func (s *GCSStore) Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	obj := &storage.Object{Name: path, ContentType: contentType}
	if _, err := s.svc.Objects.Insert(s.bucket, obj).Media(r).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("gcs upload %s: %w", path, err)
	}
	s.logger.Debug("Evidence uploaded", zap.String("bucket", s.bucket), zap.String("path", path))
	return fmt.Sprintf("%s/%s", s.BaseURL(), path), nil
}

func (s *GCSStore) Delete(ctx context.Context, path string) error {
	if err := s.svc.Objects.Delete(s.bucket, path).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gcs delete %s: %w", path, err)
	}
	return nil
}
