package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/debemdeboas/zenblog/internal/util/compression"
	pkgerrors "github.com/pkg/errors"
)

type KVRepository struct { // implements Repository
	backend    Backend
	compressor compression.Compressor
}

var _ Repository = (*KVRepository)(nil)

func NewKVRepository(backend Backend, compressor compression.Compressor) *KVRepository {
	if compressor == nil {
		compressor = compression.ZstdCompressor{}
	}
	return &KVRepository{
		backend:    backend,
		compressor: compressor,
	}
}

func persistenceError(op, key string, err error) error {
	return pkgerrors.WithStack(fmt.Errorf("%s %s: %w: %w", op, key, model.ErrPersistence, err))
}

// load returns the decompressed record, or ok=false when it is absent or
// cannot be decompressed. The codec is detected per record; the configured
// compressor only applies to writes. Only backend failures are errors.
func (r *KVRepository) load(key string) (data []byte, ok bool, err error) {
	raw, err := r.backend.Get(key)
	if errors.Is(err, ErrNoRecord) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, persistenceError("read", key, err)
	}

	data, err = compression.Decompress(raw)
	if err != nil {
		repoLogger.Warn().Err(err).Str("key", key).Msg("Discarding undecodable record")
		return nil, false, nil
	}
	return data, true, nil
}

// store encodes v completely before the backend is touched.
func (r *KVRepository) store(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return persistenceError("encode", key, err)
	}

	compressed, err := r.compressor.Compress(data)
	if err != nil {
		return persistenceError("compress", key, err)
	}

	if err := r.backend.Put(key, compressed); err != nil {
		return persistenceError("write", key, err)
	}

	repoLogger.Debug().Str("key", key).Int("bytes", len(compressed)).Msg("Record saved")
	return nil
}

func (r *KVRepository) LoadPosts() ([]model.Post, error) {
	data, ok, err := r.load(KeyPosts)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.Post{}, nil
	}

	var posts []model.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		repoLogger.Warn().Err(err).Str("key", KeyPosts).Msg("Discarding corrupt posts record")
		return []model.Post{}, nil
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}

func (r *KVRepository) SavePosts(posts []model.Post) error {
	if posts == nil {
		posts = []model.Post{}
	}
	return r.store(KeyPosts, posts)
}

func (r *KVRepository) LoadSettings() (model.Settings, error) {
	data, ok, err := r.load(KeySettings)
	if err != nil {
		return model.Settings{}, err
	}
	if !ok {
		return model.DefaultSettings(), nil
	}

	// Decoding over the defaults fills any field the stored record lacks.
	settings := model.DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		repoLogger.Warn().Err(err).Str("key", KeySettings).Msg("Discarding corrupt settings record")
		return model.DefaultSettings(), nil
	}
	return settings, nil
}

func (r *KVRepository) SaveSettings(s model.Settings) error {
	return r.store(KeySettings, s)
}

func (r *KVRepository) LoadDraft() (*model.EditorDraft, error) {
	data, ok, err := r.load(KeyDraft)
	if err != nil || !ok {
		return nil, err
	}

	var draft model.EditorDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		repoLogger.Warn().Err(err).Str("key", KeyDraft).Msg("Discarding corrupt draft record")
		return nil, nil
	}
	return &draft, nil
}

func (r *KVRepository) SaveDraft(d model.EditorDraft) error {
	return r.store(KeyDraft, d)
}

func (r *KVRepository) ClearDraft() error {
	if err := r.backend.Delete(KeyDraft); err != nil && !errors.Is(err, ErrNoRecord) {
		return persistenceError("delete", KeyDraft, err)
	}
	return nil
}

func (r *KVRepository) Close() error {
	return r.backend.Close()
}
