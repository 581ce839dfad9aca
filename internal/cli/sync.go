package cli

import (
	"errors"
	"fmt"

	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/debemdeboas/zenblog/internal/syncer"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
)

var errNotConfiguredHint = errors.New("connect a remote first with 'zenblog login <token> --repo owner/name'")

func notConfigured(err error) error {
	if errors.Is(err, model.ErrNotConfigured) {
		return fmt.Errorf("%w; %w", err, errNotConfiguredHint)
	}
	return err
}

func (r *runner) syncCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "sync [id]",
		Short: "Push posts to the remote",
		Long: `Push one post, or with --all every post that is not synced yet.
A failed push leaves the local copy untouched; run sync again to retry.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			ctrl := r.app.ctrl

			if len(args) == 1 {
				id, err := r.resolve(args[0])
				if err != nil {
					return err
				}
				p, err := ctrl.SyncPost(cmd.Context(), id)
				if err != nil {
					return notConfigured(err)
				}
				printOK(w, "Synced %s %q", accentStyle.Render(shortID(p.ID)), p.Title)
				return nil
			}
			if !all {
				return errors.New("pass a post id or --all")
			}

			results, err := ctrl.SyncAll(cmd.Context())
			if err != nil {
				return notConfigured(err)
			}
			if len(results) == 0 {
				printOK(w, "Everything is already synced")
				return nil
			}

			failed := 0
			for _, res := range results {
				if res.OK {
					printOK(w, "%s v%d", accentStyle.Render(shortID(res.ID)), res.Version)
					continue
				}
				failed++
				printWarn(w, "%s v%d: %v", accentStyle.Render(shortID(res.ID)), res.Version, res.Err)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d posts failed to sync", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "push every post that is not synced")
	return cmd
}

func (r *runner) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the remote connection and sync counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			s := r.app.ctrl.Settings()

			fmt.Fprintln(w, headingStyle.Render(s.SiteName))
			switch {
			case s.RemoteConfigured() && s.IsConnected():
				fmt.Fprintf(w, "remote: %s (%s) as %s\n", s.GitHubRepo, r.app.cfg.Remote.Provider, s.GitHubUser.Login)
			case s.RemoteConfigured():
				fmt.Fprintf(w, "remote: %s (%s)\n", s.GitHubRepo, r.app.cfg.Remote.Provider)
			default:
				fmt.Fprintln(w, mutedStyle.Render("remote: not configured"))
			}

			counts := map[model.SyncStatus]int{}
			posts := r.app.ctrl.Posts()
			for _, p := range posts {
				counts[syncer.StatusOf(p)]++
			}
			fmt.Fprintf(w, "%d posts: %s %d  %s %d  %s %d\n", len(posts),
				statusBadge(model.StatusSynced), counts[model.StatusSynced],
				statusBadge(model.StatusStale), counts[model.StatusStale],
				statusBadge(model.StatusUnsynced), counts[model.StatusUnsynced])
			return nil
		},
	}
}

func (r *runner) diffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <id>",
		Short: "Compare a post with its remote copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := r.resolve(args[0])
			if err != nil {
				return err
			}
			d, err := r.app.ctrl.Diff(cmd.Context(), id)
			if err != nil {
				return notConfigured(err)
			}

			w := cmd.OutOrStdout()
			switch {
			case d == nil:
				fmt.Fprintln(w, mutedStyle.Render("Not on the remote yet"))
			case d.Unreadable:
				printWarn(w, "Remote file exists but is not a post")
			case !d.Changed():
				printOK(w, "Remote matches local (local v%d, remote v%d)", d.LocalVersion, d.RemoteVersion)
			default:
				fmt.Fprintf(w, "local v%d, remote v%d\n", d.LocalVersion, d.RemoteVersion)
				if titleChanged(d.Title) {
					fmt.Fprintln(w, headingStyle.Render("title: ")+diffmatchpatch.New().DiffPrettyText(d.Title))
				}
				fmt.Fprint(w, d.Patch())
			}
			return nil
		},
	}
}

func titleChanged(diffs []diffmatchpatch.Diff) bool {
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual {
			return true
		}
	}
	return false
}
