package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/espdocs/internal/foundation/errors"
)

func TestParse(t *testing.T) {
	t.Setenv("ESPDOCS_TEST_BUILD", "/tmp/out")

	content := "targets: [esp32, esp32c3]\n" +
		"languages: [en]\n" +
		"builder:\n" +
		"  python: python3.12\n" +
		"  builders: [html, latex]\n" +
		"  parallel_builds: \"2\"\n" +
		"paths:\n" +
		"  build_dir: ${ESPDOCS_TEST_BUILD}\n" +
		"  known_warnings_dir: docs\n" +
		"logging:\n" +
		"  level: DEBUG\n"

	cfg, err := Parse([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, []string{"esp32", "esp32c3"}, cfg.Targets)
	assert.Equal(t, []string{"en"}, cfg.Languages)
	assert.Equal(t, []string{"python3.12", "-u", "-m", "sphinx.cmd.build"}, cfg.Builder.SphinxCommand)
	assert.Equal(t, []string{"html", "latex"}, cfg.Builder.Builders)
	assert.Equal(t, "/tmp/out", cfg.Paths.BuildDir)
	assert.Equal(t, "docs", cfg.Paths.KnownWarningsDir)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{"en", "zh_CN"}, cfg.Languages)
	assert.Equal(t, []string{"html"}, cfg.Builder.Builders)
	assert.Equal(t, []string{"latexmk"}, cfg.Builder.LatexmkCommand)
	assert.Equal(t, "auto", cfg.Builder.ParallelBuilds)
	assert.Equal(t, "_build", cfg.Paths.BuildDir)
	assert.Equal(t, ".", cfg.Paths.DoxyfileDir)
	assert.Equal(t, "../", cfg.Paths.ProjectPath)
	assert.Equal(t, "espressif/esp-idf", cfg.GHLinkcheck.Repository)
	assert.Len(t, cfg.GHLinkcheck.Allowed, 2)
	assert.Equal(t, []string{".rst"}, cfg.GHLinkcheck.Extensions)
	assert.Equal(t, "espdocs.events", cfg.Notify.Subject)
}

func TestLoad(t *testing.T) {
	t.Run("explicit missing file fails", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	})

	t.Run("reads explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("targets: [esp32s3]\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"esp32s3"}, cfg.Targets)
	})

	t.Run("default file is optional", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "_build", cfg.Paths.BuildDir)
	})

	t.Run("dotenv does not override environment", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		t.Setenv("ESPDOCS_TEST_DIR", "from-env")
		require.NoError(t, os.WriteFile(".env", []byte("ESPDOCS_TEST_DIR=from-file\n"), 0o600))
		require.NoError(t, os.WriteFile(DefaultFileName, []byte("paths:\n  source_dir: ${ESPDOCS_TEST_DIR}\n"), 0o600))

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Paths.SourceDir)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown target", "targets: [esp99]\n"},
		{"unknown language", "languages: [de]\n"},
		{"malformed language", "languages: [\"en__x!\"]\n"},
		{"bad parallel builds", "builder:\n  parallel_builds: \"0\"\n"},
		{"bad debounce", "watch:\n  debounce: soon\n"},
		{"bad repository", "gh_linkcheck:\n  repository: esp-idf\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
		})
	}
}

func TestNormalizeLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel("Warning"))
	assert.Equal(t, LogLevelError, NormalizeLogLevel(" error "))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("verbose"))
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat("JSON"))
}
