package commands

import (
	"context"
	"fmt"
	"os"

	"git.home.luguber.info/inful/espdocs/internal/docsversion"
	ferrors "git.home.luguber.info/inful/espdocs/internal/foundation/errors"
)

// DocsVersionCmd implements the 'docs-version' command.
type DocsVersionCmd struct {
	Version string `arg:"" optional:"" help:"Version to sanitize (default: described from the repository)"`
	Repo    string `name:"repo" default:"." help:"Repository to describe when no version is given"`
}

func (d *DocsVersionCmd) Run(_ context.Context, g *Global, _ *CLI) error {
	version := d.Version
	if version == "" {
		described, err := docsversion.Describe(d.Repo)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryNotFound, "cannot determine docs version").
				WithContext("repo", d.Repo).Build()
		}
		version = described
	}
	_, err := fmt.Fprintln(g.Out, docsversion.Sanitize(version, os.LookupEnv))
	return err
}
