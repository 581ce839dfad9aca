package cli

import (
	"fmt"
	"strings"

	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/spf13/cobra"
)

func (r *runner) loginCommand() *cobra.Command {
	var repo string
	cmd := &cobra.Command{
		Use:   "login <token>",
		Short: "Verify a GitHub token and store it",
		Long: `Verify a personal access token against the GitHub API and store it
together with the account it belongs to. The token needs contents write
access to the target repository.

For the s3 provider there is no identity check; set the credential with
'zenblog settings --token ACCESS_KEY_ID:SECRET --repo bucket' instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := r.app.ctrl.Connect(cmd.Context(), args[0], repo)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printOK(w, "Connected as %s", accentStyle.Render(s.GitHubUser.Login))
			if s.GitHubRepo == "" {
				printWarn(w, "Set a target repository with 'zenblog settings --repo owner/name'")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "target repository as owner/name")
	return cmd
}

func (r *runner) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token, repository and account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := r.app.ctrl.Disconnect(); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Disconnected; posts stay on this machine")
			return nil
		},
	}
}

func maskToken(token string) string {
	if token == "" {
		return mutedStyle.Render("(none)")
	}
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

func (r *runner) settingsCommand() *cobra.Command {
	var (
		next     model.Settings
		theme    string
		autosave bool
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
		Example: `  zenblog settings --repo me/blog --theme sepia
  zenblog settings --autosave=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := r.app.ctrl
			s := ctrl.Settings()
			flags := cmd.Flags()

			changed := false
			for name, apply := range map[string]func(){
				"name":     func() { s.UserName = next.UserName },
				"site":     func() { s.SiteName = next.SiteName },
				"tagline":  func() { s.Tagline = next.Tagline },
				"bio":      func() { s.Bio = next.Bio },
				"repo":     func() { s.GitHubRepo = strings.TrimSpace(next.GitHubRepo) },
				"token":    func() { s.GitHubToken = strings.TrimSpace(next.GitHubToken) },
				"theme":    func() { s.CurrentTheme = model.Theme(theme) },
				"autosave": func() { s.AutoSaveEnabled = autosave },
			} {
				if flags.Changed(name) {
					apply()
					changed = true
				}
			}

			if changed {
				var err error
				if s, err = ctrl.UpdateSettings(s); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Settings saved")
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-10s %s\n", "name", s.UserName)
			fmt.Fprintf(w, "%-10s %s\n", "site", s.SiteName)
			fmt.Fprintf(w, "%-10s %s\n", "tagline", s.Tagline)
			fmt.Fprintf(w, "%-10s %s\n", "bio", s.Bio)
			fmt.Fprintf(w, "%-10s %s\n", "theme", s.CurrentTheme)
			fmt.Fprintf(w, "%-10s %t\n", "autosave", s.AutoSaveEnabled)
			fmt.Fprintf(w, "%-10s %s\n", "repo", s.GitHubRepo)
			fmt.Fprintf(w, "%-10s %s\n", "token", maskToken(s.GitHubToken))
			if s.IsConnected() {
				fmt.Fprintf(w, "%-10s %s\n", "account", s.GitHubUser.Login)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&next.UserName, "name", "", "author name")
	f.StringVar(&next.SiteName, "site", "", "site name")
	f.StringVar(&next.Tagline, "tagline", "", "site tagline")
	f.StringVar(&next.Bio, "bio", "", "author bio")
	f.StringVar(&next.GitHubRepo, "repo", "", "target repository (owner/name, or bucket for s3)")
	f.StringVar(&next.GitHubToken, "token", "", "remote credential, stored without verification")
	f.StringVar(&theme, "theme", "", "one of light, dark, sepia, ocean, minimal")
	f.BoolVar(&autosave, "autosave", true, "autosave drafts while writing")
	return cmd
}
