package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const recordExt = ".rec"

// FSBackend keeps each record in its own file under dir. Writes go to a
// temporary file that is renamed over the record.
type FSBackend struct { // implements Backend
	dir string
}

func NewFSBackend(dir string) (*FSBackend, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FSBackend{dir: dir}, nil
}

func (b *FSBackend) path(key string) string {
	return filepath.Join(b.dir, key+recordExt)
}

func (b *FSBackend) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRecord
	}
	return data, err
}

func (b *FSBackend) Put(key string, value []byte) error {
	tmp, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, b.path(key))
}

func (b *FSBackend) Delete(key string) error {
	err := os.Remove(b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (b *FSBackend) Close() error {
	return nil
}
