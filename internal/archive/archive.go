// Package archive groups posts into a year/month timeline.
package archive

import (
	"cmp"
	"slices"
	"time"

	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/debemdeboas/zenblog/internal/syncer"
	"github.com/debemdeboas/zenblog/internal/util"
)

type Entry struct {
	ID        model.PostID
	Title     string
	CreatedAt time.Time
	Tags      []string
	Words     int
	Status    model.SyncStatus
}

type Month struct {
	Month   time.Month
	Entries []Entry
}

type Year struct {
	Year   int
	Months []Month
}

// Build groups posts by the year and month of their creation in loc. Years,
// months and entries are all newest first.
func Build(posts []model.Post, loc *time.Location) []Year {
	if loc == nil {
		loc = time.Local
	}

	type ym struct {
		year  int
		month time.Month
	}
	groups := make(map[ym][]Entry)
	for _, p := range posts {
		created := p.CreatedAt.In(loc)
		k := ym{created.Year(), created.Month()}
		groups[k] = append(groups[k], Entry{
			ID:        p.ID,
			Title:     p.Title,
			CreatedAt: p.CreatedAt,
			Tags:      slices.Clone(p.Tags),
			Words:     util.WordCount(p.Content),
			Status:    syncer.StatusOf(p),
		})
	}

	years := make(map[int][]Month)
	for k, entries := range groups {
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		years[k.year] = append(years[k.year], Month{Month: k.month, Entries: entries})
	}

	out := make([]Year, 0, len(years))
	for year, months := range years {
		slices.SortFunc(months, func(a, b Month) int {
			return cmp.Compare(b.Month, a.Month)
		})
		out = append(out, Year{Year: year, Months: months})
	}
	slices.SortFunc(out, func(a, b Year) int {
		return cmp.Compare(b.Year, a.Year)
	})
	return out
}

// Count returns the number of entries in the year.
func (y Year) Count() int {
	n := 0
	for _, m := range y.Months {
		n += len(m.Entries)
	}
	return n
}
