package commands

import (
	"cmp"
	"context"
	"time"

	"git.home.luguber.info/inful/espdocs/internal/dispatch"
	ferrors "git.home.luguber.info/inful/espdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/espdocs/internal/logfields"
	"git.home.luguber.info/inful/espdocs/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	MatrixFlags `embed:""`

	Debounce time.Duration `name:"debounce" help:"Quiet period before rebuilding (default: watch.debounce)"`
}

func (w *WatchCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	opts, err := w.options(cfg, dispatch.ModeBuild)
	if err != nil {
		return err
	}
	if err := checkRequirements(ctx, g, root, cfg); err != nil {
		return err
	}

	debounce := w.Debounce
	if debounce == 0 {
		// Validated when the configuration was loaded.
		debounce, _ = time.ParseDuration(cfg.Watch.Debounce)
	}

	o := openObservers(root, cfg, g.Logger)
	defer o.close(g.Logger)

	watcher := &watch.Watcher{
		Roots:    []string{cmp.Or(w.SourceDir, cfg.Paths.SourceDir, ".")},
		Debounce: debounce,
	}
	err = watcher.Run(ctx, func(ctx context.Context) {
		code := runMatrix(ctx, g, o, opts)
		if ctx.Err() == nil {
			g.Logger.Info("Build finished; waiting for changes", logfields.ExitCode(code))
		}
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "file watcher failed").Build()
	}
	return exitError(ferrors.ExitInterrupted, "watch")
}
