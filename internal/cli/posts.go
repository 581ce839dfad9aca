package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/debemdeboas/zenblog/internal/blog"
	"github.com/debemdeboas/zenblog/internal/editor"
	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/debemdeboas/zenblog/internal/syncer"
	"github.com/debemdeboas/zenblog/internal/util"
	"github.com/spf13/cobra"
)

func printPosts(w io.Writer, posts []model.Post, empty string) {
	if len(posts) == 0 {
		fmt.Fprintln(w, mutedStyle.Render(empty))
		return
	}

	// Newest edits first.
	slices.SortStableFunc(posts, func(a, b model.Post) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	for _, p := range posts {
		fmt.Fprintf(w, "%s  %-10s  v%-3d %s  %s\n",
			accentStyle.Render(shortID(p.ID)),
			statusBadge(syncer.StatusOf(p)),
			p.Version,
			mutedStyle.Render(p.UpdatedAt.Local().Format(timeLayout)),
			p.Title)
	}
}

func (r *runner) listCommand() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List posts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			posts := r.app.ctrl.Posts()
			if status != "" {
				want := model.SyncStatus(status)
				if want == "local" {
					want = model.StatusUnsynced
				}
				posts = slices.DeleteFunc(posts, func(p model.Post) bool { return syncer.StatusOf(p) != want })
			}
			printPosts(cmd.OutOrStdout(), posts, "No posts yet. Create one with 'zenblog new'.")
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only show posts in this state (synced, stale, unsynced)")
	return cmd
}

func (r *runner) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := r.resolve(args[0])
			if err != nil {
				return err
			}
			p, err := r.app.ctrl.Post(id)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, headingStyle.Render(p.Title))
			fmt.Fprintf(w, "%s  %s  v%d  %d words\n", accentStyle.Render(string(p.ID)), statusBadge(syncer.StatusOf(p)), p.Version, util.WordCount(p.Content))
			fmt.Fprintf(w, "created %s, updated %s\n", p.CreatedAt.Local().Format(timeLayout), p.UpdatedAt.Local().Format(timeLayout))
			if p.LastSyncedAt != nil {
				fmt.Fprintf(w, "synced %s\n", p.LastSyncedAt.Local().Format(timeLayout))
			}
			if len(p.Tags) > 0 {
				fmt.Fprintln(w, mutedStyle.Render("tags: "+util.JoinTags(p.Tags)))
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, p.Content)
			return nil
		},
	}
}

// postFlags are the ways new and edit receive content.
type postFlags struct {
	title   string
	content string
	file    string
	tags    string
	sync    bool
	restore bool
}

func (f *postFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "post title")
	cmd.Flags().StringVarP(&f.content, "content", "c", "", "post content")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "read content from a file, - for stdin")
	cmd.Flags().StringVar(&f.tags, "tags", "", "comma separated tags")
	cmd.Flags().BoolVar(&f.sync, "sync", false, "push to the remote after saving")
	cmd.Flags().BoolVar(&f.restore, "restore", false, "start from the autosaved draft")
}

// readContent streams lines into the editor session so the autosave timer
// can snapshot long stdin input.
func readContent(in io.Reader, drafts *editor.Manager) (string, error) {
	var sb strings.Builder
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
		b := drafts.Buffer()
		b.Content = sb.String()
		drafts.Update(b)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// compose runs an editor session for id starting from initial and returns
// the final buffer. Flags that were set replace the initial values.
func (r *runner) compose(cmd *cobra.Command, id model.PostID, initial editor.Buffer, f *postFlags) (editor.Buffer, error) {
	settings := r.app.ctrl.Settings()
	drafts := r.app.drafts

	offer := drafts.Open(id, initial, settings.AutoSaveEnabled)
	buf := initial
	switch {
	case offer != nil && f.restore:
		buf, _ = drafts.Restore()
		printOK(cmd.ErrOrStderr(), "Restored draft from %s", offer.Timestamp.Local().Format(timeLayout))
	case offer != nil:
		printWarn(cmd.ErrOrStderr(), "An autosaved draft from %s exists; rerun with --restore to use it",
			offer.Timestamp.Local().Format(timeLayout))
	case f.restore:
		printWarn(cmd.ErrOrStderr(), "No autosaved draft for this post")
	}

	flags := cmd.Flags()
	if flags.Changed("title") {
		buf.Title = f.title
	}
	if flags.Changed("tags") {
		buf.Tags = f.tags
	}
	if flags.Changed("content") {
		buf.Content = f.content
	}
	drafts.Update(buf)

	switch f.file {
	case "":
	case "-":
		content, err := readContent(cmd.InOrStdin(), drafts)
		if err != nil {
			return buf, err
		}
		buf = drafts.Buffer()
		buf.Content = content
	default:
		data, err := os.ReadFile(f.file)
		if err != nil {
			return buf, fmt.Errorf("read content: %w", err)
		}
		buf.Content = strings.TrimRight(string(data), "\n")
	}
	drafts.Update(buf)
	return buf, nil
}

func (r *runner) save(cmd *cobra.Command, id model.PostID, buf editor.Buffer, sync bool) error {
	ctrl := r.app.ctrl
	post, err := ctrl.Build(blog.Fields{ID: id, Title: buf.Title, Content: buf.Content, Tags: buf.Tags})
	if err != nil {
		return err
	}

	res, err := ctrl.Save(cmd.Context(), post, sync)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return fmt.Errorf("%w (run 'zenblog show %s' to see the newer copy)", err, shortID(id))
		}
		return err
	}
	if err := r.app.drafts.Saved(); err != nil {
		printWarn(cmd.ErrOrStderr(), "Could not clear the autosaved draft: %v", err)
	}

	w := cmd.OutOrStdout()
	printOK(w, "Saved %s %q (v%d)", accentStyle.Render(shortID(res.Post.ID)), res.Post.Title, res.Post.Version)
	switch {
	case res.Synced:
		printOK(w, "Synced to remote")
	case errors.Is(res.RemoteErr, model.ErrNotConfigured):
		printWarn(w, "Remote not configured; saved locally only")
	case res.RemoteErr != nil:
		printWarn(w, "Sync failed, saved locally: %v", res.RemoteErr)
	}
	return nil
}

func (r *runner) newCommand() *cobra.Command {
	f := &postFlags{}
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Write a new post",
		Example: `  zenblog new -t "Hello" -c "First post" --tags intro,meta
  cat draft.md | zenblog new -t "From stdin" -f - --sync`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := r.compose(cmd, model.NewPost, editor.Buffer{}, f)
			if err != nil {
				return err
			}
			return r.save(cmd, model.NewPost, buf, f.sync)
		},
	}
	f.register(cmd)
	return cmd
}

func (r *runner) editCommand() *cobra.Command {
	f := &postFlags{}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a post's title, content or tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := r.resolve(args[0])
			if err != nil {
				return err
			}
			p, err := r.app.ctrl.Post(id)
			if err != nil {
				return err
			}

			initial := editor.Buffer{Title: p.Title, Content: p.Content, Tags: util.JoinTags(p.Tags)}
			buf, err := r.compose(cmd, id, initial, f)
			if err != nil {
				return err
			}
			return r.save(cmd, id, buf, f.sync)
		},
	}
	f.register(cmd)
	return cmd
}

func (r *runner) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a post locally and from the remote",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := r.resolve(args[0])
			if err != nil {
				return err
			}
			res, err := r.app.ctrl.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printOK(w, "Deleted %s", accentStyle.Render(shortID(id)))
			switch {
			case res.RemoteDeleted:
				printOK(w, "Removed from remote")
			case res.RemoteErr != nil:
				printWarn(w, "Remote copy may remain: %v", res.RemoteErr)
			}
			return nil
		},
	}
}

func (r *runner) searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find posts by title, content or tag",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printPosts(cmd.OutOrStdout(), r.app.ctrl.Search(strings.Join(args, " ")), "No matching posts.")
			return nil
		},
	}
}
