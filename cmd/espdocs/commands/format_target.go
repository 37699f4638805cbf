package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/espdocs/internal/config"
	ferrors "git.home.luguber.info/inful/espdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/espdocs/internal/logfields"
	"git.home.luguber.info/inful/espdocs/internal/substitution"
)

// FormatTargetCmd implements the 'format-target' command.
type FormatTargetCmd struct {
	Target  string   `short:"t" required:"" help:"Target whose values are substituted"`
	File    string   `arg:"" help:"reStructuredText file to format"`
	Output  string   `short:"o" help:"Write the result here instead of stdout"`
	Defines []string `name:"defines" sep:"," help:"C headers whose #define values become {IDF_TARGET_<NAME>} substitutions"`
}

func (f *FormatTargetCmd) Run(_ context.Context, g *Global, _ *CLI) error {
	if err := config.ValidateTarget(f.Target); err != nil {
		return err
	}
	sub, err := substitution.ForTarget(f.Target)
	if err != nil {
		return err
	}
	for _, path := range f.Defines {
		if err := addDefines(sub, path); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(filepath.Clean(f.File))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read source file").
			WithContext("file", f.File).Build()
	}
	out, err := sub.Substitute(string(data))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid substitution definition").
			WithContext("file", f.File).Build()
	}

	if unresolved := substitution.Unresolved(out); len(unresolved) > 0 {
		g.Logger.Warn("Unresolved target substitutions",
			logfields.File(f.File), logfields.Target(f.Target), slog.Any("tags", unresolved))
	}

	if f.Output != "" {
		if err := os.WriteFile(f.Output, []byte(out), 0o600); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write output").
				WithContext("file", f.Output).Build()
		}
		return nil
	}
	_, err = io.WriteString(g.Out, out)
	return err
}

func addDefines(sub *substitution.Substituter, path string) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to open defines file").
			WithContext("file", path).Build()
	}
	defer func() { _ = file.Close() }()

	defines, err := substitution.ParseDefines(file)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read defines file").
			WithContext("file", path).Build()
	}
	sub.AddValues(defines)
	return nil
}
