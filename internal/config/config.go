package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/espdocs/internal/foundation/errors"
)

// DefaultFileName is the project configuration file looked up when --config is not given.
const DefaultFileName = "esp-docs.yaml"

// Config is the optional project configuration. CLI flags override its values.
type Config struct {
	Languages   []string          `yaml:"languages,omitempty"`
	Targets     []string          `yaml:"targets,omitempty"`
	Builder     BuilderConfig     `yaml:"builder"`
	Paths       PathsConfig       `yaml:"paths"`
	GHLinkcheck GHLinkcheckConfig `yaml:"gh_linkcheck"`
	Watch       WatchConfig       `yaml:"watch"`
	History     HistoryConfig     `yaml:"history"`
	Notify      NotifyConfig      `yaml:"notify"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// BuilderConfig describes the external programs invoked per job.
type BuilderConfig struct {
	Python         string   `yaml:"python"`          // Interpreter used for sphinx and pip
	SphinxCommand  []string `yaml:"sphinx_command"`  // Defaults to <python> -u -m sphinx.cmd.build
	LatexmkCommand []string `yaml:"latexmk_command"` // Defaults to latexmk
	ConfigDir      string   `yaml:"config_dir"`      // Shared Sphinx configuration passed as -D config_dir
	Builders       []string `yaml:"builders"`        // Sphinx builder names, e.g. html, latex
	ParallelBuilds string   `yaml:"parallel_builds"` // "auto" or a positive integer
}

// PathsConfig holds the directories a build reads from and writes to.
type PathsConfig struct {
	BuildDir         string `yaml:"build_dir"`
	SourceDir        string `yaml:"source_dir"`
	DoxyfileDir      string `yaml:"doxyfile_dir"`
	ProjectPath      string `yaml:"project_path"`
	KnownWarningsDir string `yaml:"known_warnings_dir"`
}

// GHLinkcheckConfig configures the hardcoded GitHub link scan.
type GHLinkcheckConfig struct {
	Repository   string   `yaml:"repository"` // <org>/<repo>; derived from the origin remote when empty
	Allowed      []string `yaml:"allowed"`
	Extensions   []string `yaml:"extensions"`
	UseGitignore bool     `yaml:"use_gitignore"`
}

// WatchConfig configures the rebuild-on-change loop.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// HistoryConfig configures the sqlite run history. Empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// NotifyConfig configures NATS event publishing. Empty URL disables it.
type NotifyConfig struct {
	NATSURL   string `yaml:"nats_url"`
	Subject   string `yaml:"subject"`   // Prefix; the event type is appended
	JetStream bool   `yaml:"jetstream"` // Publish through JetStream instead of core NATS
}

// MetricsConfig configures the Prometheus textfile export. Empty path disables it.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads the configuration at path. When path is empty the default file
// name is tried and its absence is not an error; an explicitly named file must exist.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		cfg := &Config{}
		if err := applyDefaults(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, ferrors.ConfigError("configuration file not found").WithContext("path", path).Build()
	case err != nil:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().WithContext("path", path).Build()
	}

	return Parse(data)
}

// Parse decodes YAML content after environment variable expansion, then
// applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config").Fatal().Build()
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration holding only default values.
func Default() *Config {
	cfg := &Config{}
	_ = applyDefaults(cfg)
	return cfg
}
