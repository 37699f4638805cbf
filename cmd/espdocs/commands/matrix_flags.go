package commands

import (
	"cmp"

	"git.home.luguber.info/inful/espdocs/internal/config"
	"git.home.luguber.info/inful/espdocs/internal/dispatch"
	ferrors "git.home.luguber.info/inful/espdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/espdocs/internal/matrix"
	"git.home.luguber.info/inful/espdocs/internal/sphinx"
	"git.home.luguber.info/inful/espdocs/internal/targets"
)

// MatrixFlags select the (language × target) jobs and how they are built.
// Values not given fall back to the project configuration.
type MatrixFlags struct {
	Language             string   `short:"l" help:"Language to build (default: all configured languages)"`
	Target               []string `short:"t" help:"Target(s) to build, repeatable or comma separated"`
	BuildDir             string   `short:"b" name:"build-dir" help:"Base directory for build output"`
	SourceDir            string   `short:"s" name:"source-dir" help:"Base directory holding one source tree per language"`
	DoxyfileDir          string   `short:"d" name:"doxyfile-dir" help:"Directory containing the Doxyfile"`
	ProjectPath          string   `name:"project-path" help:"Path to the documented project"`
	Builders             []string `name:"builders" help:"Builders to run in order (default: html)"`
	SphinxParallelBuilds string   `short:"p" name:"sphinx-parallel-builds" help:"Concurrent builds: auto or a positive integer"`
	SphinxParallelJobs   int      `short:"j" name:"sphinx-parallel-jobs" default:"1" help:"Parallel jobs per build; values above 1 are forced to 1"`
	InputDocs            []string `short:"i" name:"input-docs" help:"Only build these documents"`
	FastBuild            bool     `short:"f" name:"fast-build" help:"Skip time-consuming steps (exports DOCS_FAST_BUILD=y)"`
}

// options resolves the flags against cfg into dispatcher options for mode.
func (m *MatrixFlags) options(cfg *config.Config, mode dispatch.Mode) (dispatch.Options, error) {
	if m.Language != "" {
		if err := config.ValidateLanguage(m.Language); err != nil {
			return dispatch.Options{}, err
		}
	}

	tgts := targets.SplitList(m.Target)
	if len(tgts) == 0 {
		tgts = cfg.Targets
	}
	if len(tgts) == 0 {
		return dispatch.Options{}, ferrors.ValidationError("at least one --target is required").
			WithContext("supported", targets.IDs()).Build()
	}
	for _, t := range tgts {
		if err := config.ValidateTarget(t); err != nil {
			return dispatch.Options{}, err
		}
	}

	builders := targets.SplitList(m.Builders)
	if len(builders) == 0 {
		builders = cfg.Builder.Builders
	}
	if mode == dispatch.ModeLinkcheck {
		builders = []string{"linkcheck"}
	}

	workers, err := dispatch.ParseWorkers(cmp.Or(m.SphinxParallelBuilds, cfg.Builder.ParallelBuilds))
	if err != nil {
		return dispatch.Options{}, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid --sphinx-parallel-builds").Build()
	}

	jobs, err := matrix.Expand(matrix.Request{
		Language:    m.Language,
		Languages:   cfg.Languages,
		Targets:     tgts,
		BuildBase:   cmp.Or(m.BuildDir, cfg.Paths.BuildDir),
		SourceBase:  cmp.Or(m.SourceDir, cfg.Paths.SourceDir, "."),
		Builders:    builders,
		InputDocs:   targets.SplitList(m.InputDocs),
		DoxyfileDir: cmp.Or(m.DoxyfileDir, cfg.Paths.DoxyfileDir),
		ProjectPath: cmp.Or(m.ProjectPath, cfg.Paths.ProjectPath),
	})
	if err != nil {
		return dispatch.Options{}, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid build matrix").Build()
	}

	return dispatch.Options{
		Jobs:          jobs,
		Mode:          mode,
		Workers:       workers,
		JobsPerWorker: m.SphinxParallelJobs,
		Sphinx: sphinx.Sphinx{
			Command:   cfg.Builder.SphinxCommand,
			ConfigDir: cfg.Builder.ConfigDir,
			FastBuild: m.FastBuild,
		},
		LatexmkCommand:   cfg.Builder.LatexmkCommand,
		KnownWarningsDir: cfg.Paths.KnownWarningsDir,
	}, nil
}
