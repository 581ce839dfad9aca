package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/debemdeboas/zenblog/internal/util/compression"
)

func TestCopy(t *testing.T) {
	t.Run("Moves every record", func(t *testing.T) {
		src := NewKVRepository(NewMemoryBackend(), compression.GzipCompressor{})
		dst := NewKVRepository(NewMemoryBackend(), compression.ZstdCompressor{})

		settings := model.DefaultSettings()
		settings.SiteName = "Copied"
		draft := model.EditorDraft{ID: "p1", Title: "half", Content: "done", Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
		if err := src.SavePosts(samplePosts()); err != nil {
			t.Fatal(err)
		}
		if err := src.SaveSettings(settings); err != nil {
			t.Fatal(err)
		}
		if err := src.SaveDraft(draft); err != nil {
			t.Fatal(err)
		}

		stats, err := Copy(dst, src)
		if err != nil {
			t.Fatalf("Copy failed: %v", err)
		}
		if stats.Posts != len(samplePosts()) || !stats.Draft {
			t.Errorf("Unexpected stats %+v", stats)
		}

		posts, err := dst.LoadPosts()
		if err != nil {
			t.Fatal(err)
		}
		want := samplePosts()
		if len(posts) != len(want) {
			t.Fatalf("Expected %d posts, got %d", len(want), len(posts))
		}
		for i := range want {
			assertPostEqual(t, want[i], posts[i])
		}

		gotSettings, err := dst.LoadSettings()
		if err != nil {
			t.Fatal(err)
		}
		if gotSettings.SiteName != "Copied" {
			t.Errorf("Expected copied settings, got %+v", gotSettings)
		}

		gotDraft, err := dst.LoadDraft()
		if err != nil {
			t.Fatal(err)
		}
		if gotDraft == nil || gotDraft.Title != "half" || !gotDraft.Matches("p1") {
			t.Errorf("Expected copied draft, got %+v", gotDraft)
		}
	})

	t.Run("Clears a stale destination draft", func(t *testing.T) {
		src := NewKVRepository(NewMemoryBackend(), nil)
		dst := NewKVRepository(NewMemoryBackend(), nil)
		if err := dst.SaveDraft(model.EditorDraft{Title: "old"}); err != nil {
			t.Fatal(err)
		}

		stats, err := Copy(dst, src)
		if err != nil {
			t.Fatal(err)
		}
		if stats.Draft || stats.Posts != 0 {
			t.Errorf("Unexpected stats %+v", stats)
		}
		if d, _ := dst.LoadDraft(); d != nil {
			t.Errorf("Expected no draft, got %+v", d)
		}
	})

	t.Run("Write failure", func(t *testing.T) {
		src := NewKVRepository(NewMemoryBackend(), nil)
		if err := src.SavePosts(samplePosts()); err != nil {
			t.Fatal(err)
		}
		dst := NewKVRepository(&failingBackend{Backend: NewMemoryBackend(), failPut: true}, nil)

		_, err := Copy(dst, src)
		if !errors.Is(err, model.ErrPersistence) {
			t.Errorf("Expected persistence error, got %v", err)
		}
	})
}
