// Package publish uploads finished output files to S3-compatible storage.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Publisher uploads one local file
type Publisher interface {
	Publish(ctx context.Context, localPath string) error
}

// Config describes the destination bucket
type Config struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	Secure    bool
}

// Enabled reports whether an upload destination is configured
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// ObjectStore publishes files with a minio client
type ObjectStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewObjectStore creates a publisher for cfg
func NewObjectStore(cfg Config) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	return &ObjectStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Publish implements Publisher
func (s *ObjectStore) Publish(ctx context.Context, localPath string) error {
	key := ObjectKey(s.prefix, localPath)

	info, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: ContentType(localPath),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to %s/%s: %w", localPath, s.bucket, key, err)
	}

	slog.Info("Published output", "bucket", s.bucket, "key", key, "size", info.Size)
	return nil
}

// ObjectKey is prefix joined with the file's base name
func ObjectKey(prefix, localPath string) string {
	base := filepath.Base(localPath)
	if prefix == "" {
		return base
	}
	return path.Join(strings.TrimSuffix(prefix, "/"), base)
}

// ContentType picks the MIME type for a line-delimited JSON output
func ContentType(localPath string) string {
	if strings.HasSuffix(localPath, ".gz") {
		return "application/gzip"
	}
	return "application/x-ndjson"
}
