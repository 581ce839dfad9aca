package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/debemdeboas/zenblog/internal/model"
)

func (c *Controller) Settings() model.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.Clone()
}

// updateSettings persists the result of fn. Callers must not hold c.mu.
func (c *Controller) updateSettings(fn func(s *model.Settings) error) (model.Settings, error) {
	next, toggled, err := c.applySettings(fn)
	if err != nil {
		return next, err
	}
	if toggled && c.onAutosave != nil {
		c.onAutosave(next.AutoSaveEnabled)
	}
	return next, nil
}

func (c *Controller) applySettings(fn func(s *model.Settings) error) (model.Settings, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.settings.Clone()
	if err := fn(&next); err != nil {
		return c.settings.Clone(), false, err
	}
	if err := c.repo.SaveSettings(next); err != nil {
		blogLogger.Error().Stack().Err(err).Msg("Failed to persist settings")
		return c.settings.Clone(), false, err
	}
	toggled := next.AutoSaveEnabled != c.settings.AutoSaveEnabled
	c.settings = next
	return next.Clone(), toggled, nil
}

// UpdateSettings replaces all settings. Unknown themes are rejected.
func (c *Controller) UpdateSettings(s model.Settings) (model.Settings, error) {
	return c.updateSettings(func(next *model.Settings) error {
		if !s.CurrentTheme.Valid() {
			return fmt.Errorf("%w: unknown theme %q", model.ErrValidation, s.CurrentTheme)
		}
		*next = s.Clone()
		return nil
	})
}

// Connect verifies token with the remote and stores it along with the
// identity it belongs to. A non-empty repo replaces the target repository.
func (c *Controller) Connect(ctx context.Context, token, repo string) (model.Settings, error) {
	token = strings.TrimSpace(token)
	if c.auth == nil {
		return c.Settings(), fmt.Errorf("%w: remote provider has no identity endpoint", model.ErrAuth)
	}

	user, err := c.auth.Authenticate(ctx, token)
	if err != nil {
		return c.Settings(), err
	}

	return c.updateSettings(func(s *model.Settings) error {
		s.GitHubToken = token
		s.GitHubUser = user
		s.UserName = user.DisplayName()
		if repo = strings.TrimSpace(repo); repo != "" {
			s.GitHubRepo = repo
		}
		return nil
	})
}

// Disconnect forgets the credential, repository and identity.
func (c *Controller) Disconnect() (model.Settings, error) {
	return c.updateSettings(func(s *model.Settings) error {
		s.GitHubToken = ""
		s.GitHubRepo = ""
		s.GitHubUser = nil
		return nil
	})
}

// SetAutosave persists the autosave preference and notifies the listener
// registered with WithAutosaveListener so a running session stops or starts.
func (c *Controller) SetAutosave(enabled bool) (model.Settings, error) {
	return c.updateSettings(func(s *model.Settings) error {
		s.AutoSaveEnabled = enabled
		return nil
	})
}
