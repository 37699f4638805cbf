package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/espdocs/internal/config"
	ferrors "git.home.luguber.info/inful/espdocs/internal/foundation/errors"
)

// LogLevelEnv overrides the log level unless --verbose is given.
const LogLevelEnv = "ESP_DOCS_LOG_LEVEL"

// Global carries process-wide state shared by subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer // Human-readable output: relayed builder output, reports
	Err    io.Writer // Diagnostics and logs
}

// NewGlobal returns a Global writing to the process streams.
func NewGlobal() *Global {
	return &Global{Out: os.Stdout, Err: os.Stderr, Logger: slog.Default()}
}

// CLI definition & global flags.
type CLI struct {
	Config        string           `short:"c" help:"Configuration file path (default: esp-docs.yaml when present)"`
	Verbose       bool             `short:"v" help:"Enable verbose logging"`
	LogFormat     string           `name:"log-format" help:"Log output format: text or json"`
	Version       kong.VersionFlag `name:"version" help:"Show version and exit"`
	MetricsFile   string           `name:"metrics-file" help:"Write Prometheus metrics of the run to this textfile"`
	HistoryDB     string           `name:"history-db" help:"Record runs in this SQLite database"`
	SkipReqsCheck bool             `name:"skip-reqs-check" help:"Skip checking that requirements.txt is satisfied"`

	Build        BuildCmd        `cmd:"" help:"Build the documentation for every language/target combination"`
	Linkcheck    LinkcheckCmd    `cmd:"" help:"Check external links with the linkcheck builder"`
	GHLinkcheck  GHLinkcheckCmd  `cmd:"" name:"gh-linkcheck" help:"Find hardcoded GitHub links in documentation sources"`
	Watch        WatchCmd        `cmd:"" help:"Build, then rebuild whenever sources change"`
	Schedule     ScheduleCmd     `cmd:"" help:"Run build or linkcheck periodically"`
	History      HistoryCmd      `cmd:"" help:"List recorded documentation runs"`
	DocsVersion  DocsVersionCmd  `cmd:"" name:"docs-version" help:"Print the version the documentation is published under"`
	FormatTarget FormatTargetCmd `cmd:"" name:"format-target" help:"Print a source file with target substitutions applied"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	g.Logger = newLogger(g.Err, c.logLevel(""), config.NormalizeLogFormat(c.LogFormat))
	slog.SetDefault(g.Logger)
	return nil
}

// logLevel resolves the level: --verbose, then ESP_DOCS_LOG_LEVEL, then the
// configured level.
func (c *CLI) logLevel(configured config.LogLevel) slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	if env := os.Getenv(LogLevelEnv); env != "" {
		return config.NormalizeLogLevel(env).SlogLevel()
	}
	return configured.SlogLevel()
}

func newLogger(w io.Writer, level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig reads the project configuration and applies its logging section
// where no flag or environment variable took precedence.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	format := config.NormalizeLogFormat(c.LogFormat)
	if c.LogFormat == "" {
		format = cfg.Logging.Format
	}
	g.Logger = newLogger(g.Err, c.logLevel(cfg.Logging.Level), format)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// exitError converts an aggregated run code into the error reported by the CLI.
func exitError(code int, what string) error {
	switch code {
	case ferrors.ExitOK:
		return nil
	case ferrors.ExitInterrupted:
		return ferrors.InterruptedError(what + " interrupted").Build()
	default:
		return ferrors.BuildError(what + " failed").WithContext("exit_code", code).Build()
	}
}
