package model

import "slices"

type Theme string

const (
	ThemeLight   Theme = "light"
	ThemeDark    Theme = "dark"
	ThemeSepia   Theme = "sepia"
	ThemeOcean   Theme = "ocean"
	ThemeMinimal Theme = "minimal"
)

var Themes = []Theme{ThemeLight, ThemeDark, ThemeSepia, ThemeOcean, ThemeMinimal}

func (t Theme) Valid() bool {
	return slices.Contains(Themes, t)
}

// GitHubUser is the identity returned by the remote service for a token.
type GitHubUser struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// DisplayName prefers the profile name and falls back to the login.
func (u GitHubUser) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}

type Settings struct {
	UserName string `json:"userName"`

	GitHubToken string      `json:"githubToken"`
	GitHubRepo  string      `json:"githubRepo"`
	GitHubUser  *GitHubUser `json:"githubUser"`

	CurrentTheme Theme  `json:"currentTheme"`
	SiteName     string `json:"siteName"`
	Tagline      string `json:"tagline"`
	Bio          string `json:"bio"`

	AutoSaveEnabled bool `json:"autoSaveEnabled"`
}

func DefaultSettings() Settings {
	return Settings{
		UserName:        "Author Name",
		GitHubToken:     "",
		GitHubRepo:      "",
		GitHubUser:      nil,
		CurrentTheme:    ThemeLight,
		SiteName:        "ZenBlog",
		Tagline:         "Personal AI Writing Space",
		Bio:             "",
		AutoSaveEnabled: true,
	}
}

// RemoteConfigured reports whether both the credential and the target repository are set.
func (s Settings) RemoteConfigured() bool {
	return s.GitHubToken != "" && s.GitHubRepo != ""
}

// IsConnected reports whether an authenticated identity is stored.
func (s Settings) IsConnected() bool {
	return s.GitHubUser != nil
}

func (s Settings) Clone() Settings {
	dup := s
	if s.GitHubUser != nil {
		u := *s.GitHubUser
		dup.GitHubUser = &u
	}
	return dup
}
