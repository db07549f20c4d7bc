// Package local keeps slips on the server's disk and serves them as static
// files.
package local

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/oumpowerman/thaoshare/config"
	"github.com/oumpowerman/thaoshare/providers"
)

type Disk struct {
	Dir       string
	PublicURL string
}

func New(dir, publicURL string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{Dir: dir, PublicURL: publicURL}, nil
}

func (d *Disk) Upload(ctx context.Context, name, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst := filepath.Join(d.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write slip: %w", err)
	}
	return path.Join(d.PublicURL, name), nil
}

func init() {
	providers.RegisterProvider("local", func(_ context.Context, cfg config.StorageConfig) (providers.SlipUploader, error) {
		return New(cfg.Dir, cfg.PublicURL)
	})
}
