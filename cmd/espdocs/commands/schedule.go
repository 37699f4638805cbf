package commands

import (
	"context"
	"time"

	"git.home.luguber.info/inful/espdocs/internal/dispatch"
	ferrors "git.home.luguber.info/inful/espdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/espdocs/internal/logfields"
	"git.home.luguber.info/inful/espdocs/internal/schedule"
)

// ScheduleCmd implements the 'schedule' command.
type ScheduleCmd struct {
	MatrixFlags `embed:""`

	Every  time.Duration `name:"every" required:"" help:"Interval between runs, e.g. 6h"`
	Action string        `name:"action" enum:"build,linkcheck" default:"linkcheck" help:"What to run: build or linkcheck"`
}

func (s *ScheduleCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	mode := dispatch.ModeLinkcheck
	if s.Action == "build" {
		mode = dispatch.ModeBuild
	}
	opts, err := s.options(cfg, mode)
	if err != nil {
		return err
	}
	if err := checkRequirements(ctx, g, root, cfg); err != nil {
		return err
	}

	o := openObservers(root, cfg, g.Logger)
	defer o.close(g.Logger)

	sched, err := schedule.New()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create scheduler").Build()
	}
	_, err = sched.Every(ctx, s.Every, s.Action, func(ctx context.Context) {
		code := runMatrix(ctx, g, o, opts)
		g.Logger.Info("Scheduled run finished", logfields.Command(s.Action), logfields.ExitCode(code))
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid schedule").Build()
	}
	if err := sched.Run(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "scheduler failed").Build()
	}
	return exitError(ferrors.ExitInterrupted, "schedule")
}
