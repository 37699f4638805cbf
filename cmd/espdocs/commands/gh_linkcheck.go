package commands

import (
	"cmp"
	"context"
	"log/slog"

	ferrors "git.home.luguber.info/inful/espdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/espdocs/internal/ghlinks"
	"git.home.luguber.info/inful/espdocs/internal/logfields"
	"git.home.luguber.info/inful/espdocs/internal/targets"
)

// GHLinkcheckCmd implements the 'gh-linkcheck' command.
type GHLinkcheckCmd struct {
	DocsDir      string   `name:"docs-dir" default:"." help:"Documentation tree to scan"`
	Ext          []string `name:"ext" help:"File extensions to scan (default: .rst); .html/.htm files are parsed as HTML"`
	Repository   string   `name:"repository" help:"<org>/<repo> whose links are reported (default: gh_linkcheck.repository)"`
	FromRemote   bool     `name:"from-remote" help:"Take the repository from the origin remote of the docs tree"`
	UseGitignore bool     `name:"use-gitignore" help:"Skip files ignored by the tree's .gitignore"`
}

func (c *GHLinkcheckCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if err := checkRequirements(ctx, g, root, cfg); err != nil {
		return err
	}

	repo := cmp.Or(c.Repository, cfg.GHLinkcheck.Repository)
	if c.FromRemote {
		repo, err = ghlinks.RepositoryFromRemote(c.DocsDir)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryLinks, "cannot derive repository from origin remote").
				WithContext("dir", c.DocsDir).Build()
		}
	}

	opts := ghlinks.Options{
		Repository: repo,
		Allowed:    cfg.GHLinkcheck.Allowed,
		Extensions: targets.SplitList(c.Ext),
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = cfg.GHLinkcheck.Extensions
	}
	if c.UseGitignore || cfg.GHLinkcheck.UseGitignore {
		ignore, err := ghlinks.LoadIgnore(c.DocsDir)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read .gitignore").Build()
		}
		opts.Ignore = ignore
	}

	g.Logger.Debug("Scanning for hardcoded GitHub links", logfields.Path(c.DocsDir), slog.String("repository", repo))
	findings, err := ghlinks.NewScanner(opts).Scan(c.DocsDir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to scan documentation tree").
			WithContext("dir", c.DocsDir).Build()
	}
	if ghlinks.Report(g.Out, findings) != 0 {
		return ferrors.NewError(ferrors.CategoryLinks, "hardcoded GitHub links found").
			WithContext("count", len(findings)).Build()
	}
	return nil
}
