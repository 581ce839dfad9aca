package cli

import (
	"fmt"
	"strings"

	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/spf13/cobra"
)

type runner struct {
	opts Options
	app  *app

	configPath string
	envFiles   []string
	logLevel   string
}

func (r *runner) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "zenblog",
		Short: "Local-first blog with an optional remote mirror",
		Long: `zenblog keeps your posts in a local store and mirrors them to a
GitHub repository (or an S3 bucket) when you ask it to.

Nothing leaves the machine until you connect a remote and sync.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := r.opts.load(r.configPath, r.envFiles, r.logLevel)
			if err != nil {
				return err
			}
			r.app, err = openApp(r.opts, cfg)
			return err
		},
	}

	root.PersistentFlags().StringVar(&r.configPath, "config", "zenblog.yaml", "path to the config file")
	root.PersistentFlags().StringSliceVar(&r.envFiles, "env-file", []string{".env"}, "env files loaded before the config")
	root.PersistentFlags().StringVar(&r.logLevel, "log-level", "", "override logging.level")

	root.AddGroup(
		&cobra.Group{ID: "posts", Title: "Posts:"},
		&cobra.Group{ID: "sync", Title: "Sync:"},
		&cobra.Group{ID: "account", Title: "Account:"},
	)

	for _, c := range []*cobra.Command{
		r.listCommand(), r.showCommand(), r.newCommand(), r.editCommand(),
		r.deleteCommand(), r.searchCommand(), r.archiveCommand(), r.importCommand(),
		r.draftCommand(),
	} {
		c.GroupID = "posts"
		root.AddCommand(c)
	}
	for _, c := range []*cobra.Command{r.syncCommand(), r.statusCommand(), r.diffCommand()} {
		c.GroupID = "sync"
		root.AddCommand(c)
	}
	for _, c := range []*cobra.Command{r.loginCommand(), r.logoutCommand(), r.settingsCommand()} {
		c.GroupID = "account"
		root.AddCommand(c)
	}

	return root
}

// resolve accepts a full id or an unambiguous prefix of one.
func (r *runner) resolve(arg string) (model.PostID, error) {
	var matches []model.PostID
	for _, p := range r.app.ctrl.Posts() {
		if string(p.ID) == arg {
			return p.ID, nil
		}
		if strings.HasPrefix(string(p.ID), arg) {
			matches = append(matches, p.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", model.ErrNotFound, arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q matches %d posts", arg, len(matches))
	}
}
