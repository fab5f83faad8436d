package rendering

import (
	"context"
	"fmt"
	"sync"

	"github.com/vaultwrx/billing/internal/application/statement"
)

const templatePrefix = "templates/"

// Ensure BlobTemplateSource implements statement.TemplateSource
var _ statement.TemplateSource = (*BlobTemplateSource)(nil)

// BlobTemplateSource loads statement templates from object storage under
// the templates/ prefix. Fetched templates are cached for the lifetime of
// the source, so template edits require a restart to pick up.
type BlobTemplateSource struct {
	storage statement.BlobStorage

	mu    sync.RWMutex
	cache map[string]string
}

// NewBlobTemplateSource creates a template source over the given storage
func NewBlobTemplateSource(storage statement.BlobStorage) *BlobTemplateSource {
	return &BlobTemplateSource{
		storage: storage,
		cache:   make(map[string]string),
	}
}

// Template returns the named template's HTML source.
func (s *BlobTemplateSource) Template(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	source, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return source, nil
	}

	data, err := s.storage.Download(ctx, templatePrefix+name)
	if err != nil {
		return "", fmt.Errorf("failed to load template %q: %w", name, err)
	}

	source = string(data)
	s.mu.Lock()
	s.cache[name] = source
	s.mu.Unlock()

	return source, nil
}
