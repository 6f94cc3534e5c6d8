package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory keeps objects in a map.  It backs tests and local runs.
type Memory struct {
	mu      sync.RWMutex
	base    string
	objects map[string]memObject
}

type memObject struct {
	data        []byte
	contentType string
}

// NewMemory returns an empty store whose URLs are prefixed with base.
func NewMemory(base string) *Memory {
	return &Memory{base: base, objects: map[string]memObject{}}
}

func (m *Memory) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (Object, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return Object{}, fmt.Errorf("read object: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: buf.Bytes(), contentType: contentType}
	return Object{Key: key, URL: objectURL(m.base, key), Size: int64(buf.Len()), ContentType: contentType}, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

// Get returns a stored object's bytes.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o.data, ok
}
