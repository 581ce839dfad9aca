package repository

import (
	"bytes"

	"github.com/debemdeboas/zenblog/internal/cache"
)

// MemoryBackend is a process-local backend for tests and throwaway sessions.
type MemoryBackend struct { // implements Backend
	records *cache.Cache[string, []byte]
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: cache.NewCache[string, []byte]()}
}

func (b *MemoryBackend) Get(key string) ([]byte, error) {
	value, ok := b.records.Get(key)
	if !ok {
		return nil, ErrNoRecord
	}
	return bytes.Clone(value), nil
}

func (b *MemoryBackend) Put(key string, value []byte) error {
	b.records.Set(key, bytes.Clone(value))
	return nil
}

func (b *MemoryBackend) Delete(key string) error {
	b.records.Delete(key)
	return nil
}

func (b *MemoryBackend) Close() error {
	return nil
}
