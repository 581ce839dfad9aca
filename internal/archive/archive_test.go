package archive

import (
	"testing"
	"time"

	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func TestBuild(t *testing.T) {
	synced := at(2024, time.March, 20)
	posts := []model.Post{
		{ID: "jan-a", Title: "A", Content: "one two three", CreatedAt: at(2024, time.January, 5), UpdatedAt: at(2024, time.January, 5)},
		{ID: "mar", Title: "M", Content: "", CreatedAt: at(2024, time.March, 1), UpdatedAt: at(2024, time.March, 2), LastSyncedAt: &synced},
		{ID: "jan-b", Title: "B", Content: "  spaced   words\nhere ", CreatedAt: at(2024, time.January, 20), UpdatedAt: at(2024, time.January, 25), LastSyncedAt: &synced},
		{ID: "old", Title: "Old", Content: "x", CreatedAt: at(2022, time.December, 31), UpdatedAt: at(2023, time.January, 2), LastSyncedAt: ptr(at(2023, time.January, 1))},
	}

	years := Build(posts, time.UTC)
	require.Len(t, years, 2)

	assert.Equal(t, 2024, years[0].Year)
	assert.Equal(t, 3, years[0].Count())
	require.Len(t, years[0].Months, 2)
	assert.Equal(t, time.March, years[0].Months[0].Month)
	assert.Equal(t, time.January, years[0].Months[1].Month)

	jan := years[0].Months[1].Entries
	require.Len(t, jan, 2)
	assert.Equal(t, model.PostID("jan-b"), jan[0].ID, "newest first")
	assert.Equal(t, 3, jan[0].Words)
	assert.Equal(t, model.StatusSynced, jan[0].Status)
	assert.Equal(t, model.StatusUnsynced, jan[1].Status)

	assert.Equal(t, 0, years[0].Months[0].Entries[0].Words)

	assert.Equal(t, 2022, years[1].Year)
	assert.Equal(t, model.StatusStale, years[1].Months[0].Entries[0].Status)
}

func TestBuildUsesLocation(t *testing.T) {
	// 23:30 UTC on Jan 31 is already February east of Greenwich
	created := time.Date(2024, time.January, 31, 23, 30, 0, 0, time.UTC)
	posts := []model.Post{{ID: "p", CreatedAt: created, UpdatedAt: created}}

	east := time.FixedZone("UTC+2", 2*60*60)
	assert.Equal(t, time.February, Build(posts, east)[0].Months[0].Month)
	assert.Equal(t, time.January, Build(posts, time.UTC)[0].Months[0].Month)
}

func TestBuildEmpty(t *testing.T) {
	assert.Empty(t, Build(nil, nil))
}

func ptr(t time.Time) *time.Time { return &t }
