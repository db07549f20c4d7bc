package providers

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/oumpowerman/thaoshare/config"
)

// SlipUploader stores payment slip images and returns a public URL.
type SlipUploader interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
}

type Factory func(ctx context.Context, cfg config.StorageConfig) (SlipUploader, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// RegisterProvider makes a storage backend available under name.
func RegisterProvider(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(name)] = f
}

func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open builds the uploader configured by STORAGE_PROVIDER.
func Open(ctx context.Context, cfg config.StorageConfig) (SlipUploader, error) {
	mu.RLock()
	f, ok := factories[strings.ToLower(cfg.Provider)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage provider %q not registered", cfg.Provider)
	}
	return f(ctx, cfg)
}

// Close releases the uploader's client when it holds one.
func Close(u SlipUploader) error {
	if c, ok := u.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
