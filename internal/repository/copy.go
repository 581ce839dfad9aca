package repository

import "fmt"

// CopyStats counts what Copy moved.
type CopyStats struct {
	Posts int
	Draft bool
}

// Copy writes every record of src into dst, replacing what dst holds. The
// draft is cleared in dst when src has none.
func Copy(dst, src Repository) (CopyStats, error) {
	var stats CopyStats

	posts, err := src.LoadPosts()
	if err != nil {
		return stats, fmt.Errorf("read posts: %w", err)
	}
	settings, err := src.LoadSettings()
	if err != nil {
		return stats, fmt.Errorf("read settings: %w", err)
	}
	draft, err := src.LoadDraft()
	if err != nil {
		return stats, fmt.Errorf("read draft: %w", err)
	}

	if err := dst.SavePosts(posts); err != nil {
		return stats, fmt.Errorf("write posts: %w", err)
	}
	stats.Posts = len(posts)

	if err := dst.SaveSettings(settings); err != nil {
		return stats, fmt.Errorf("write settings: %w", err)
	}

	if draft == nil {
		err = dst.ClearDraft()
	} else {
		err = dst.SaveDraft(*draft)
		stats.Draft = true
	}
	if err != nil {
		return stats, fmt.Errorf("write draft: %w", err)
	}

	repoLogger.Info().Int("posts", stats.Posts).Bool("draft", stats.Draft).Msg("Records copied")
	return stats, nil
}
