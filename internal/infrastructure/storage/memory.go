// Package storage provides object storage implementations for statement artifacts.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vaultwrx/billing/internal/application/statement"
)

// Ensure MemoryBlobStorage implements statement.BlobStorage
var _ statement.BlobStorage = (*MemoryBlobStorage)(nil)

type memoryObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

// MemoryBlobStorage is an in-memory implementation of statement.BlobStorage.
// Use it for local development and tests; objects do not survive a restart.
type MemoryBlobStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject

	// BaseURL is the base URL for generated download links.
	// Defaults to "https://storage.example.com" if not set.
	BaseURL string
}

// NewMemoryBlobStorage creates an empty MemoryBlobStorage
func NewMemoryBlobStorage() *MemoryBlobStorage {
	return &MemoryBlobStorage{
		objects: make(map[string]memoryObject),
		BaseURL: "https://storage.example.com",
	}
}

// Upload stores a copy of data under the key.
func (s *MemoryBlobStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	obj := memoryObject{
		data:        append([]byte(nil), data...),
		contentType: contentType,
	}
	if existing, ok := s.objects[key]; ok {
		obj.metadata = existing.metadata
	}
	s.objects[key] = obj
	return nil
}

// SetMetadata replaces the object's content type and custom metadata.
func (s *MemoryBlobStorage) SetMetadata(ctx context.Context, key, contentType string, metadata map[string]string) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	if !ok {
		return fmt.Errorf("object %q does not exist", key)
	}

	obj.contentType = contentType
	obj.metadata = make(map[string]string, len(metadata))
	for k, v := range metadata {
		obj.metadata[k] = v
	}
	s.objects[key] = obj
	return nil
}

// Download returns a copy of the object's contents.
func (s *MemoryBlobStorage) Download(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("storage key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q does not exist", key)
	}
	return append([]byte(nil), obj.data...), nil
}

// List returns every object under the key prefix, sorted by key.
func (s *MemoryBlobStorage) List(ctx context.Context, prefix string) ([]statement.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var objects []statement.ObjectInfo
	for key, obj := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		objects = append(objects, obj.info(key))
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Key < objects[j].Key
	})
	return objects, nil
}

// Head returns one object's size, content type and metadata.
func (s *MemoryBlobStorage) Head(ctx context.Context, key string) (*statement.ObjectInfo, error) {
	if key == "" {
		return nil, errors.New("storage key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q does not exist", key)
	}

	info := obj.info(key)
	return &info, nil
}

// Delete removes the object. Deleting a missing key succeeds.
func (s *MemoryBlobStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// PresignDownload returns a fake download URL for the object.
func (s *MemoryBlobStorage) PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/download/" + key + "?expires=" + expiresAt.Format(time.RFC3339), nil
}

func (o memoryObject) info(key string) statement.ObjectInfo {
	meta := make(map[string]string, len(o.metadata))
	for k, v := range o.metadata {
		meta[k] = v
	}
	return statement.ObjectInfo{
		Key:         key,
		Size:        int64(len(o.data)),
		ContentType: o.contentType,
		Metadata:    meta,
	}
}
