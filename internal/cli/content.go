package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/debemdeboas/zenblog/internal/blog"
	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/debemdeboas/zenblog/internal/util"
	"github.com/spf13/cobra"
)

func (r *runner) archiveCommand() *cobra.Command {
	var utc bool
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Show posts grouped by year and month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := time.Local
			if utc {
				loc = time.UTC
			}

			w := cmd.OutOrStdout()
			years := r.app.ctrl.Archive(loc)
			if len(years) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("The archive is empty."))
				return nil
			}
			for _, y := range years {
				fmt.Fprintf(w, "%s %s\n", headingStyle.Render(fmt.Sprint(y.Year)), mutedStyle.Render(fmt.Sprintf("(%d)", y.Count())))
				for _, m := range y.Months {
					fmt.Fprintf(w, "  %s\n", accentStyle.Render(m.Month.String()))
					for _, e := range m.Entries {
						fmt.Fprintf(w, "    %02d  %s  %s  %s\n",
							e.CreatedAt.In(loc).Day(), statusBadge(e.Status), e.Title,
							mutedStyle.Render(fmt.Sprintf("%d words", e.Words)))
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&utc, "utc", false, "group by UTC dates instead of local time")
	return cmd
}

func (r *runner) importCommand() *cobra.Command {
	var sync bool
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Create posts from markdown files",
		Long: `Create one post per *.md file in dir. Files may start with an mmark
%%% front matter block; its title and keyword fields become the post title
and tags. Without a title the file name is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := filepath.Glob(filepath.Join(args[0], "*.md"))
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no markdown files in %s", args[0])
			}
			slices.Sort(files)

			w := cmd.OutOrStdout()
			ctrl := r.app.ctrl
			imported := 0
			for _, path := range files {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}

				doc := util.ParseDocument(data)
				if doc.Title == "" {
					doc.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				}

				post, err := ctrl.Build(blog.Fields{Title: doc.Title, Content: doc.Body, Tags: util.JoinTags(doc.Tags)})
				if err != nil {
					return err
				}
				res, err := ctrl.Save(cmd.Context(), post, sync)
				switch {
				case errors.Is(err, model.ErrValidation):
					printWarn(w, "Skipped %s: %v", filepath.Base(path), err)
					continue
				case err != nil:
					return err
				}

				imported++
				printOK(w, "%s %s", accentStyle.Render(shortID(res.Post.ID)), res.Post.Title)
				if sync && res.RemoteErr != nil {
					printWarn(w, "  not synced: %v", res.RemoteErr)
				}
			}
			printOK(w, "Imported %d of %d files", imported, len(files))
			return nil
		},
	}
	cmd.Flags().BoolVar(&sync, "sync", false, "push each imported post")
	return cmd
}

func (r *runner) draftCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Show the autosaved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			d, err := r.app.drafts.Stored()
			if err != nil {
				return err
			}
			if d == nil {
				fmt.Fprintln(w, mutedStyle.Render("No autosaved draft."))
				return nil
			}

			target := "new post"
			if !d.IsNew() {
				target = "post " + string(d.ID)
			}
			fmt.Fprintf(w, "%s for %s, saved %s\n", headingStyle.Render("Draft"), target, d.Timestamp.Local().Format(timeLayout))
			fmt.Fprintf(w, "title: %s\n", d.Title)
			if d.Tags != "" {
				fmt.Fprintf(w, "tags: %s\n", d.Tags)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, d.Content)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "discard",
		Short: "Delete the autosaved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.app.drafts.Discard(); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Draft discarded")
			return nil
		},
	})
	return cmd
}
