// Package editor keeps a single autosaved snapshot of the post being edited
// so unsaved work survives a crash.
package editor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/rs/zerolog"
)

var editorLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

const DefaultInterval = 5 * time.Second

// DraftStore is the slice of the local store the manager needs.
type DraftStore interface {
	LoadDraft() (*model.EditorDraft, error)
	SaveDraft(d model.EditorDraft) error
	ClearDraft() error
}

// Buffer is the editor's current, unsaved field values. Tags is raw text.
type Buffer struct {
	Title   string
	Content string
	Tags    string
}

func (b Buffer) empty() bool {
	return strings.TrimSpace(b.Title) == "" && strings.TrimSpace(b.Content) == ""
}

type State int

const (
	Idle State = iota
	Armed
)

func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "idle"
}

type Manager struct {
	store    DraftStore
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	open    bool
	id      model.PostID
	buffer  Buffer
	enabled bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(store DraftStore, interval time.Duration, opts ...Option) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	m := &Manager{
		store:    store,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts an editing session for id (model.NewPost for a post that does
// not exist yet) with the given initial buffer. When a stored draft belongs
// to the same post it is returned as a restore offer; it is not applied.
func (m *Manager) Open(id model.PostID, initial Buffer, enabled bool) *model.EditorDraft {
	m.stop()

	// Read the prior draft before arming so the first tick cannot replace it.
	draft, err := m.store.LoadDraft()
	if err != nil {
		editorLogger.Warn().Err(err).Msg("Could not read autosaved draft")
		draft = nil
	}

	m.mu.Lock()
	m.open = true
	m.id = id
	m.buffer = initial
	m.enabled = enabled
	m.mu.Unlock()

	if enabled {
		m.start()
	}

	if draft == nil || !draft.Matches(id) {
		return nil
	}
	editorLogger.Info().Str("post_id", string(id)).Time("timestamp", draft.Timestamp).Msg("Found autosaved draft")
	return draft
}

func (m *Manager) Update(b Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffer = b
}

func (m *Manager) Buffer() Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffer
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return Armed
	}
	return Idle
}

// Restore copies the stored draft into the buffer. The stored record is kept.
// It reports false when there is no draft for the open session.
func (m *Manager) Restore() (Buffer, bool) {
	draft, err := m.store.LoadDraft()
	if err != nil {
		editorLogger.Warn().Err(err).Msg("Could not read autosaved draft")
		return m.Buffer(), false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if draft == nil || !m.open || !draft.Matches(m.id) {
		return m.buffer, false
	}
	m.buffer = Buffer{Title: draft.Title, Content: draft.Content, Tags: draft.Tags}
	return m.buffer, true
}

// Stored returns the draft slot as it is, whatever post it belongs to.
func (m *Manager) Stored() (*model.EditorDraft, error) {
	return m.store.LoadDraft()
}

// Discard removes the stored draft. The session stays open.
func (m *Manager) Discard() error {
	return m.store.ClearDraft()
}

// Saved ends the session after the post was saved and drops the draft.
func (m *Manager) Saved() error {
	m.stop()

	m.mu.Lock()
	m.open = false
	m.id = model.NewPost
	m.buffer = Buffer{}
	m.mu.Unlock()

	return m.store.ClearDraft()
}

// SetEnabled arms or disarms the autosave timer for the open session.
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	m.enabled = enabled
	open := m.open
	m.mu.Unlock()

	if !enabled {
		m.stop()
		return
	}
	if open {
		m.start()
	}
}

// Close stops autosaving. No snapshot is taken after Close returns.
func (m *Manager) Close() {
	m.stop()

	m.mu.Lock()
	m.open = false
	m.mu.Unlock()
}

func (m *Manager) start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.tick(ctx)
			}
		}
	}()
}

// stop cancels the timer goroutine and waits for it to exit.
func (m *Manager) stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// tick snapshots the buffer unless it is blank or the session was stopped.
func (m *Manager) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	m.mu.Lock()
	if !m.open || !m.enabled || m.buffer.empty() {
		m.mu.Unlock()
		return
	}
	draft := model.EditorDraft{
		ID:        m.id,
		Title:     m.buffer.Title,
		Content:   m.buffer.Content,
		Tags:      m.buffer.Tags,
		Timestamp: m.now(),
	}
	m.mu.Unlock()

	if err := m.store.SaveDraft(draft); err != nil {
		editorLogger.Error().Stack().Err(err).Str("post_id", string(draft.ID)).Msg("Autosave failed")
		return
	}
	editorLogger.Debug().Str("post_id", string(draft.ID)).Msg("Draft autosaved")
}
