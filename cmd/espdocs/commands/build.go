package commands

import (
	"context"

	"git.home.luguber.info/inful/espdocs/internal/config"
	"git.home.luguber.info/inful/espdocs/internal/dispatch"
	ferrors "git.home.luguber.info/inful/espdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/espdocs/internal/reqs"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	MatrixFlags `embed:""`

	CheckWarningsOnly bool `name:"check-warnings-only" help:"Only reconcile the warning logs of a previous build"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	mode := dispatch.ModeBuild
	if b.CheckWarningsOnly {
		mode = dispatch.ModeCheckWarnings
	}
	return runDocs(ctx, g, root, &b.MatrixFlags, mode, "build")
}

// LinkcheckCmd implements the 'linkcheck' command.
type LinkcheckCmd struct {
	MatrixFlags `embed:""`
}

func (l *LinkcheckCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	return runDocs(ctx, g, root, &l.MatrixFlags, dispatch.ModeLinkcheck, "linkcheck")
}

func runDocs(ctx context.Context, g *Global, root *CLI, flags *MatrixFlags, mode dispatch.Mode, what string) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	opts, err := flags.options(cfg, mode)
	if err != nil {
		return err
	}
	if err := checkRequirements(ctx, g, root, cfg); err != nil {
		return err
	}

	o := openObservers(root, cfg, g.Logger)
	defer o.close(g.Logger)
	code := runMatrix(ctx, g, o, opts)
	if mode == dispatch.ModeCheckWarnings && code != ferrors.ExitOK && code != ferrors.ExitInterrupted {
		return ferrors.WarningsError("warning check failed").WithContext("exit_code", code).Build()
	}
	return exitError(code, what)
}

// checkRequirements verifies requirements.txt in the working directory
// unless --skip-reqs-check is given.
func checkRequirements(ctx context.Context, g *Global, root *CLI, cfg *config.Config) error {
	if root.SkipReqsCheck {
		return nil
	}
	missing, err := reqs.Checker{Satisfied: reqs.PipShow(cfg.Builder.Python)}.Missing(ctx, reqs.FileName)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to check Python requirements").Build()
	}
	if len(missing) > 0 {
		reqs.Report(g.Out, missing)
		return ferrors.ConfigError("Python requirements not satisfied").
			WithContext("missing", len(missing)).Build()
	}
	return nil
}
