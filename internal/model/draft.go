package model

import (
	"encoding/json"
	"time"
)

// NewPost marks a draft that belongs to a post which has not been saved yet.
const NewPost PostID = ""

// EditorDraft is the single-slot snapshot of unsaved editor state.
// Tags are kept as the raw, unsplit text of the tags field.
type EditorDraft struct {
	ID        PostID
	Title     string
	Content   string
	Tags      string
	Timestamp time.Time
}

// Matches reports whether the draft was produced by a session editing id.
// Two "new post" sessions match each other.
func (d EditorDraft) Matches(id PostID) bool {
	return d.ID == id
}

func (d EditorDraft) IsNew() bool {
	return d.ID == NewPost
}

type draftJSON struct {
	ID        *PostID   `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      string    `json:"tags"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalJSON writes the new post marker as a null id.
func (d EditorDraft) MarshalJSON() ([]byte, error) {
	raw := draftJSON{
		Title:     d.Title,
		Content:   d.Content,
		Tags:      d.Tags,
		Timestamp: d.Timestamp,
	}
	if !d.IsNew() {
		id := d.ID
		raw.ID = &id
	}
	return json.Marshal(raw)
}

func (d *EditorDraft) UnmarshalJSON(data []byte) error {
	var raw draftJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = EditorDraft{
		Title:     raw.Title,
		Content:   raw.Content,
		Tags:      raw.Tags,
		Timestamp: raw.Timestamp,
	}
	if raw.ID != nil {
		d.ID = *raw.ID
	}
	return nil
}
