package sphinx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/espdocs/internal/matrix"
)

func testJob(target string) matrix.Job {
	return matrix.Job{
		Language:     "en",
		Target:       target,
		BuildDir:     "/work/_build/en/" + target,
		SourceDir:    "/work/en",
		Builders:     []string{"html"},
		ParallelJobs: 1,
		InputDocs:    []string{"api-reference/index.rst", "get-started/index.rst"},
		DoxyfileDir:  "/work/doxygen",
		ProjectPath:  "/work/project",
	}
}

func TestInvocation_WithTarget(t *testing.T) {
	s := Sphinx{Command: []string{"python3", "-u", "-m", "sphinx.cmd.build"}, ConfigDir: "/opt/esp-docs"}

	inv := s.Invocation(testJob("esp32"), "html")

	assert.Equal(t, []string{
		"python3", "-u", "-m", "sphinx.cmd.build",
		"-j", "1",
		"-b", "html",
		"-d", "/work/_build/en/esp32/doctrees",
		"-w", "/work/_build/en/esp32/sphinx-warning-log.txt",
		"-t", "esp32", "-D", "idf_target=esp32",
		"-D", "docs_to_build=api-reference/index.rst,get-started/index.rst",
		"-D", "config_dir=/opt/esp-docs",
		"-D", "doxyfile_dir=/work/doxygen",
		"-D", "project_path=/work/project",
		"/work/en",
		"/work/_build/en/esp32/html",
	}, inv.Command)
	assert.Equal(t, "/work/_build/en/esp32", inv.Dir)
	assert.Equal(t, []string{"BUILDDIR=/work/_build/en/esp32"}, inv.Env)
}

func TestInvocation_GenericHasNoTargetTags(t *testing.T) {
	s := Sphinx{Command: []string{"sphinx-build"}, FastBuild: true}

	inv := s.Invocation(testJob("generic"), "pdf")

	assert.NotContains(t, inv.Command, "-t")
	assert.NotContains(t, inv.Command, "idf_target=generic")
	assert.Contains(t, inv.Command, "latex")
	assert.Equal(t, "/work/_build/en/generic/latex", inv.Command[len(inv.Command)-1])
	for _, a := range inv.Command {
		assert.NotContains(t, a, "config_dir=")
	}
	assert.Contains(t, inv.Env, "DOCS_FAST_BUILD=y")
}

func TestWantsPDF(t *testing.T) {
	assert.True(t, WantsPDF([]string{"html", "latex"}))
	assert.True(t, WantsPDF([]string{"pdf"}))
	assert.False(t, WantsPDF([]string{"html", "linkcheck"}))
}

func TestLatexmkInvocation(t *testing.T) {
	inv := LatexmkInvocation(nil, testJob("esp32s3"))

	assert.Equal(t, "/work/_build/en/esp32s3/latex", inv.Dir)
	assert.Equal(t, []string{
		"latexmk", "-r", "latexmkrc", "-pdf", "-f", "-dvi-", "-ps-",
		"-interaction=nonstopmode", "-quiet", "-outdir=build",
	}, inv.Command)
}

func TestHasDoxyfile(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, HasDoxyfile(dir))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "doxygen"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doxygen", "Doxyfile"), nil, 0o600))
	assert.True(t, HasDoxyfile(dir))

	other := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(other, "Doxyfile"), nil, 0o600))
	assert.True(t, HasDoxyfile(other))
}
