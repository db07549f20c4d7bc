// Package gcs stores slips in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/oumpowerman/thaoshare/config"
	"github.com/oumpowerman/thaoshare/providers"
)

type Bucket struct {
	client *storage.Client
	bucket string
}

func New(ctx context.Context, bucket string) (*Bucket, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &Bucket{client: client, bucket: bucket}, nil
}

func (b *Bucket) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	w := b.client.Bucket(b.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", b.bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close gs://%s/%s: %w", b.bucket, name, err)
	}
	return PublicURL(b.bucket, name), nil
}

func (b *Bucket) Close() error {
	return b.client.Close()
}

func PublicURL(bucket, name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, name)
}

func init() {
	providers.RegisterProvider("gcs", func(ctx context.Context, cfg config.StorageConfig) (providers.SlipUploader, error) {
		return New(ctx, cfg.Bucket)
	})
}
