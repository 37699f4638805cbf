package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/espdocs/internal/warnings"
)

const (
	helperEnv     = "ESPDOCS_WANT_HELPER_PROCESS"
	helperLogEnv  = "ESPDOCS_HELPER_LOG"
	helperExitEnv = "ESPDOCS_HELPER_EXIT"
)

// TestHelperProcess is not a real test; it stands in for sphinx-build. It
// writes $ESPDOCS_HELPER_LOG to the file named by -w and exits with
// $ESPDOCS_HELPER_EXIT.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	args = args[1:]

	builder := ""
	for i := 0; i < len(args)-1; i++ {
		switch args[i] {
		case "-b":
			builder = args[i+1]
		case "-w":
			if err := os.WriteFile(args[i+1], []byte(os.Getenv(helperLogEnv)), 0o600); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
		}
	}
	fmt.Printf("building %s\n", builder)
	code, _ := strconv.Atoi(os.Getenv(helperExitEnv))
	os.Exit(code)
}

type harness struct {
	dir    string
	config string
	out    bytes.Buffer
	err    bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv(helperEnv, "1")
	t.Setenv(LogLevelEnv, "")

	h := &harness{dir: t.TempDir()}
	for _, lang := range []string{"en", "zh_CN"} {
		require.NoError(t, os.MkdirAll(filepath.Join(h.dir, "docs", lang), 0o750))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(h.dir, "known"), 0o750))

	cfg := map[string]any{
		"builder": map[string]any{
			"python":         "false",
			"sphinx_command": []string{os.Args[0], "-test.run=TestHelperProcess", "--"},
		},
		"paths": map[string]any{
			"build_dir":          filepath.Join(h.dir, "_build"),
			"source_dir":         filepath.Join(h.dir, "docs"),
			"doxyfile_dir":       h.dir,
			"project_path":       h.dir,
			"known_warnings_dir": filepath.Join(h.dir, "known"),
		},
	}
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	h.config = filepath.Join(h.dir, "esp-docs.yaml")
	require.NoError(t, os.WriteFile(h.config, data, 0o600))
	return h
}

func (h *harness) run(t *testing.T, args ...string) int {
	t.Helper()
	h.out.Reset()
	h.err.Reset()
	g := &Global{Out: &h.out, Err: &h.err}
	return Execute(t.Context(), append([]string{"--config", h.config}, args...), g)
}

func TestBuildSucceeds(t *testing.T) {
	h := newHarness(t)
	history := filepath.Join(h.dir, "history.db")
	metricsFile := filepath.Join(h.dir, "espdocs.prom")

	code := h.run(t, "--skip-reqs-check", "--history-db", history, "--metrics-file", metricsFile,
		"build", "-t", "esp32,esp32s2")

	require.Equal(t, 0, code, "stdout: %s\nstderr: %s", h.out.String(), h.err.String())
	for _, job := range []string{"en/esp32", "zh_CN/esp32", "en/esp32s2", "zh_CN/esp32s2"} {
		assert.Contains(t, h.out.String(), job+": building html\n")
		assert.FileExists(t, filepath.Join(h.dir, "_build", job, warnings.SphinxSanitizedLog))
	}

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "espdocs_job_results_total")

	code = h.run(t, "--history-db", history, "history")
	require.Equal(t, 0, code, h.err.String())
	assert.Contains(t, h.out.String(), "build")
	assert.Contains(t, h.out.String(), "succeeded")

	code = h.run(t, "--history-db", history, "history", "--json")
	require.Equal(t, 0, code, h.err.String())
	var runs []struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &runs))
	require.Len(t, runs, 1)

	code = h.run(t, "--history-db", history, "history", "--run", runs[0].RunID)
	require.Equal(t, 0, code, h.err.String())
	assert.Contains(t, h.out.String(), "Run "+runs[0].RunID+" (build): succeeded, exit code 0\n")
	assert.Contains(t, h.out.String(), "zh_CN")
	assert.Contains(t, h.out.String(), "esp32s2")

	code = h.run(t, "--history-db", history, "history", "--run", "no-such-run")
	assert.Equal(t, 1, code)
	assert.Contains(t, h.err.String(), "run not found")
}

func TestBuildFailsOnNewWarning(t *testing.T) {
	h := newHarness(t)
	t.Setenv(helperLogEnv, "/docs/en/index.rst:3: WARNING: duplicate label\n")

	code := h.run(t, "--skip-reqs-check", "build", "-t", "esp32", "-l", "en")

	assert.Equal(t, 1, code)
	assert.Contains(t, h.out.String(), "en/esp32: /docs/en/index.rst:3: WARNING: duplicate label\n")
	assert.Contains(t, h.out.String(), "language: en, target: esp32, errcode: 1\n")
	assert.Contains(t, h.err.String(), "Error: build failed")
}

func TestBuildPropagatesBuilderExitCode(t *testing.T) {
	h := newHarness(t)
	t.Setenv(helperExitEnv, "4")

	code := h.run(t, "--skip-reqs-check", "linkcheck", "-t", "esp32c3", "-l", "zh_CN")

	assert.Equal(t, 1, code)
	assert.Contains(t, h.out.String(), "zh_CN/esp32c3: building linkcheck\n")
	assert.Contains(t, h.out.String(), "language: zh_CN, target: esp32c3, errcode: 4\n")
}

func TestBuildCancelled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	g := &Global{Out: &h.out, Err: &h.err}
	code := Execute(ctx, []string{"--config", h.config, "--skip-reqs-check", "build", "-t", "esp32"}, g)
	assert.Equal(t, 130, code)
}

func TestBuildRequiresTarget(t *testing.T) {
	h := newHarness(t)

	code := h.run(t, "--skip-reqs-check", "build")

	assert.Equal(t, 1, code)
	assert.Contains(t, h.err.String(), "at least one --target is required")
}

func TestBuildRejectsUnknownLanguage(t *testing.T) {
	h := newHarness(t)

	code := h.run(t, "--skip-reqs-check", "build", "-t", "esp32", "-l", "de")

	assert.Equal(t, 1, code)
	assert.Contains(t, h.err.String(), "unsupported language")
}

func TestBuildChecksRequirements(t *testing.T) {
	h := newHarness(t)
	t.Chdir(h.dir)
	require.NoError(t, os.WriteFile("requirements.txt", []byte("esp-docs>=1.0\n"), 0o600))

	code := h.run(t, "build", "-t", "esp32")

	assert.Equal(t, 1, code)
	assert.Contains(t, h.out.String(), "esp-docs>=1.0\n")
	assert.Contains(t, h.out.String(), "--skip-reqs-check")
	assert.NoDirExists(t, filepath.Join(h.dir, "_build"))
}

func TestCheckWarningsOnly(t *testing.T) {
	h := newHarness(t)
	buildDir := filepath.Join(h.dir, "_build", "en", "esp32")
	require.NoError(t, os.MkdirAll(buildDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(buildDir, warnings.SphinxLog), nil, 0o600))

	code := h.run(t, "--skip-reqs-check", "build", "--check-warnings-only", "-t", "esp32", "-l", "en")

	assert.Equal(t, 0, code, h.out.String())
	assert.NotContains(t, h.out.String(), "building")
}

func TestCheckWarningsOnly_NewWarning(t *testing.T) {
	h := newHarness(t)
	buildDir := filepath.Join(h.dir, "_build", "en", "esp32")
	require.NoError(t, os.MkdirAll(buildDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(buildDir, warnings.SphinxLog),
		[]byte("/docs/en/index.rst:3: WARNING: undefined label\n"), 0o600))

	code := h.run(t, "--skip-reqs-check", "build", "--check-warnings-only", "-t", "esp32", "-l", "en")

	assert.Equal(t, 1, code)
	assert.Contains(t, h.out.String(), "en/esp32: /docs/en/index.rst:3: WARNING: undefined label\n")
	assert.Contains(t, h.err.String(), "Error: warning check failed")
}

func TestGHLinkcheck(t *testing.T) {
	h := newHarness(t)
	docs := filepath.Join(h.dir, "docs")
	require.NoError(t, os.WriteFile(filepath.Join(docs, "en", "index.rst"),
		[]byte("See https://github.com/espressif/esp-idf/tree/master/examples for examples.\n"), 0o600))

	code := h.run(t, "gh-linkcheck", "--docs-dir", docs)

	assert.Equal(t, 1, code)
	assert.Contains(t, h.out.String(), "https://github.com/espressif/esp-idf/tree/master/examples")
	assert.Contains(t, h.err.String(), "hardcoded GitHub links found")

	require.NoError(t, os.WriteFile(filepath.Join(docs, "en", "index.rst"), []byte("Use :example:`get-started`.\n"), 0o600))
	code = h.run(t, "gh-linkcheck", "--docs-dir", docs)
	assert.Equal(t, 0, code)
	assert.Contains(t, h.out.String(), "No hardcoded links found")
}

func TestDocsVersion(t *testing.T) {
	h := newHarness(t)
	t.Setenv("CI_COMMIT_REF_NAME", "release/v5.1")

	code := h.run(t, "docs-version", "ignored")

	require.Equal(t, 0, code, h.err.String())
	assert.Equal(t, "release-v5.1\n", h.out.String())
}

func TestGHLinkcheckChecksRequirements(t *testing.T) {
	h := newHarness(t)
	t.Chdir(h.dir)
	require.NoError(t, os.WriteFile("requirements.txt", []byte("sphinx==4.5.0\n"), 0o600))

	code := h.run(t, "gh-linkcheck", "--docs-dir", filepath.Join(h.dir, "docs"))

	assert.Equal(t, 1, code)
	assert.Contains(t, h.out.String(), "sphinx==4.5.0\n")
	assert.NotContains(t, h.out.String(), "No hardcoded links found")

	code = h.run(t, "--skip-reqs-check", "gh-linkcheck", "--docs-dir", filepath.Join(h.dir, "docs"))
	assert.Equal(t, 0, code, h.err.String())
	assert.Contains(t, h.out.String(), "No hardcoded links found")
}

func TestFormatTarget(t *testing.T) {
	h := newHarness(t)
	src := filepath.Join(h.dir, "docs", "en", "intro.rst")
	require.NoError(t, os.WriteFile(src, []byte("{IDF_TARGET_NAME} uses {IDF_TARGET_TOOLCHAIN_PREFIX}-gcc. {IDF_TARGET_UNKNOWN}\n"), 0o600))

	code := h.run(t, "format-target", "-t", "esp32s3", src)

	require.Equal(t, 0, code, h.err.String())
	assert.Equal(t, "ESP32-S3 uses xtensa-esp32s3-elf-gcc. {IDF_TARGET_UNKNOWN}\n", h.out.String())
	assert.Contains(t, h.err.String(), "Unresolved target substitutions")
}

func TestFormatTarget_Defines(t *testing.T) {
	h := newHarness(t)
	src := filepath.Join(h.dir, "docs", "en", "uart.rst")
	require.NoError(t, os.WriteFile(src, []byte("{IDF_TARGET_NAME} has {IDF_TARGET_SOC_UART_NUM} UARTs.\n"), 0o600))
	caps := filepath.Join(h.dir, "soc_caps.h")
	require.NoError(t, os.WriteFile(caps, []byte("#pragma once\n#define SOC_UART_NUM (3U)\n"), 0o600))

	code := h.run(t, "format-target", "-t", "esp32c3", "--defines", caps, src)

	require.Equal(t, 0, code, h.err.String())
	assert.Equal(t, "ESP32-C3 has 3 UARTs.\n", h.out.String())
	assert.NotContains(t, h.err.String(), "Unresolved target substitutions")
}

func TestHistoryRequiresDatabase(t *testing.T) {
	h := newHarness(t)

	code := h.run(t, "history")

	assert.Equal(t, 1, code)
	assert.Contains(t, h.err.String(), "no run history configured")
}
