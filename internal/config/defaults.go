package config

import (
	"fmt"
	"slices"

	"git.home.luguber.info/inful/espdocs/internal/targets"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// BuilderDefaultApplier handles builder defaults.
type BuilderDefaultApplier struct{}

func (BuilderDefaultApplier) Domain() string { return "builder" }

func (BuilderDefaultApplier) ApplyDefaults(cfg *Config) error {
	b := &cfg.Builder
	if b.Python == "" {
		b.Python = "python3"
	}
	if len(b.SphinxCommand) == 0 {
		b.SphinxCommand = []string{b.Python, "-u", "-m", "sphinx.cmd.build"}
	}
	if len(b.LatexmkCommand) == 0 {
		b.LatexmkCommand = []string{"latexmk"}
	}
	if len(b.Builders) == 0 {
		b.Builders = []string{"html"}
	}
	if b.ParallelBuilds == "" {
		b.ParallelBuilds = "auto"
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = slices.Clone(targets.Languages)
	}
	return nil
}

// PathsDefaultApplier handles directory defaults.
type PathsDefaultApplier struct{}

func (PathsDefaultApplier) Domain() string { return "paths" }

func (PathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	p := &cfg.Paths
	if p.BuildDir == "" {
		p.BuildDir = "_build"
	}
	if p.DoxyfileDir == "" {
		p.DoxyfileDir = "."
	}
	if p.ProjectPath == "" {
		p.ProjectPath = "../"
	}
	if p.KnownWarningsDir == "" {
		p.KnownWarningsDir = "."
	}
	return nil
}

// GHLinkcheckDefaultApplier handles hardcoded-link scan defaults.
type GHLinkcheckDefaultApplier struct{}

func (GHLinkcheckDefaultApplier) Domain() string { return "gh_linkcheck" }

func (GHLinkcheckDefaultApplier) ApplyDefaults(cfg *Config) error {
	g := &cfg.GHLinkcheck
	if g.Repository == "" {
		g.Repository = "espressif/esp-idf"
	}
	if len(g.Allowed) == 0 {
		g.Allowed = []string{
			"https://github.com/espressif/esp-idf/blob/master/SUPPORT_POLICY.md",
			"https://github.com/espressif/esp-idf/blob/master/SUPPORT_POLICY_CN.md",
		}
	}
	if len(g.Extensions) == 0 {
		g.Extensions = []string{".rst"}
	}
	return nil
}

// RuntimeDefaultApplier handles watch, notify and logging defaults.
type RuntimeDefaultApplier struct{}

func (RuntimeDefaultApplier) Domain() string { return "runtime" }

func (RuntimeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "500ms"
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "espdocs.events"
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		BuilderDefaultApplier{},
		PathsDefaultApplier{},
		GHLinkcheckDefaultApplier{},
		RuntimeDefaultApplier{},
	}
}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("%s defaults: %w", a.Domain(), err)
		}
	}
	return nil
}
