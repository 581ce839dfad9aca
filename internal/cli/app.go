// Package cli is the zenblog command line front end.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/debemdeboas/zenblog/internal/blog"
	"github.com/debemdeboas/zenblog/internal/config"
	"github.com/debemdeboas/zenblog/internal/db"
	"github.com/debemdeboas/zenblog/internal/editor"
	"github.com/debemdeboas/zenblog/internal/logger"
	"github.com/debemdeboas/zenblog/internal/remote"
	"github.com/debemdeboas/zenblog/internal/repository"
	"github.com/debemdeboas/zenblog/internal/syncer"
	"github.com/rs/zerolog"
)

// Options replace process defaults, mostly for tests.
type Options struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Config skips reading the config and env files.
	Config *config.Config
	// Logger skips building a logger from the config.
	Logger *zerolog.Logger
	Now    func() time.Time
}

type app struct {
	cfg    *config.Config
	repo   *repository.KVRepository
	ctrl   *blog.Controller
	drafts *editor.Manager

	closeLog func() error
}

func (o Options) load(configPath string, envFiles []string, logLevel string) (*config.Config, error) {
	if o.Config != nil {
		cfg := *o.Config
		return &cfg, nil
	}
	if err := config.LoadEnv(envFiles...); err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

func setLoggers(l zerolog.Logger) {
	config.SetLogger(l.With().Str("component", "config").Logger())
	db.SetLogger(l.With().Str("component", "db").Logger())
	repository.SetLogger(l.With().Str("component", "repository").Logger())
	remote.SetLogger(l.With().Str("component", "remote").Logger())
	syncer.SetLogger(l.With().Str("component", "syncer").Logger())
	editor.SetLogger(l.With().Str("component", "editor").Logger())
	blog.SetLogger(l.With().Str("component", "blog").Logger())
}

// newMirror picks the remote provider. Only GitHub can verify a token.
func newMirror(cfg config.RemoteConfig) (remote.Mirror, remote.Authenticator, error) {
	switch cfg.Provider {
	case "s3":
		return remote.NewS3(cfg.S3Endpoint, cfg.S3Region), nil, nil
	case "github":
		gh, err := remote.NewGitHub(cfg.GitHubAPI, remote.WithTimeout(cfg.Timeout))
		if err != nil {
			return nil, nil, err
		}
		return gh, gh, nil
	default:
		return nil, nil, fmt.Errorf("unknown remote provider %q", cfg.Provider)
	}
}

func openApp(opts Options, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, closeLog: func() error { return nil }}

	var l zerolog.Logger
	if opts.Logger != nil {
		l = *opts.Logger
	} else {
		l, a.closeLog = logger.New(cfg.Logging)
	}
	setLoggers(l)

	repo, err := repository.Open(cfg.Storage)
	if err != nil {
		a.close()
		return nil, err
	}
	a.repo = repo

	mirror, auth, err := newMirror(cfg.Remote)
	if err != nil {
		a.close()
		return nil, err
	}

	editorOpts := []editor.Option{}
	if opts.Now != nil {
		editorOpts = append(editorOpts, editor.WithClock(opts.Now))
	}
	a.drafts = editor.NewManager(repo, cfg.Editor.AutosaveInterval, editorOpts...)

	ctrlOpts := []blog.Option{blog.WithAutosaveListener(a.drafts.SetEnabled)}
	if auth != nil {
		ctrlOpts = append(ctrlOpts, blog.WithAuthenticator(auth))
	}
	if opts.Now != nil {
		ctrlOpts = append(ctrlOpts, blog.WithClock(opts.Now))
	}

	a.ctrl, err = blog.New(repo, syncer.New(mirror, cfg.Remote.PushConcurrency), ctrlOpts...)
	if err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

func (a *app) close() error {
	var errs []error
	if a.drafts != nil {
		a.drafts.Close()
	}
	if a.repo != nil {
		errs = append(errs, a.repo.Close())
	}
	errs = append(errs, a.closeLog())
	return errors.Join(errs...)
}

// Run executes the command line in args.
func Run(ctx context.Context, opts Options, args []string) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	r := &runner{opts: opts}
	root := r.rootCommand()
	root.SetArgs(args)
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	err := root.ExecuteContext(ctx)
	if r.app != nil {
		if cerr := r.app.close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
