package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Memory keeps objects in process. Used for local runs and tests.
type Memory struct {
	mu      sync.RWMutex
	objects map[Category]map[string][]byte
	baseURL string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{
		objects: map[Category]map[string][]byte{},
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

func (m *Memory) Upload(ctx context.Context, category Category, key string, r io.Reader) error {
	if err := checkCategory(category); err != nil {
		return err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := m.objects[category]
	if bucket == nil {
		bucket = map[string][]byte{}
		m.objects[category] = bucket
	}
	bucket[key] = b
	return nil
}

func (m *Memory) Download(ctx context.Context, category Category, key string) (io.ReadCloser, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}
	m.mu.RLock()
	b, ok := m.objects[category][key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", category, key, ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *Memory) Delete(ctx context.Context, category Category, keys ...string) error {
	if err := checkCategory(category); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.objects[category], k)
	}
	return nil
}

func (m *Memory) PublicURL(category Category, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if m.baseURL == "" {
		return fmt.Sprintf("memory://%s/%s", category, key)
	}
	return fmt.Sprintf("%s/%s/%s", m.baseURL, category, key)
}

func (m *Memory) Close() error { return nil }

// Has reports whether key exists in category.
func (m *Memory) Has(category Category, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[category][key]
	return ok
}

func checkCategory(category Category) error {
	switch category {
	case CategoryVideos, CategoryAnnotations:
		return nil
	default:
		return fmt.Errorf("unknown bucket category: %s", category)
	}
}
