// Package sphinx builds the command lines for the external documentation
// builder (sphinx-build) and the PDF step (latexmk), and runs them.
package sphinx

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/espdocs/internal/matrix"
	"git.home.luguber.info/inful/espdocs/internal/targets"
	"git.home.luguber.info/inful/espdocs/internal/warnings"
)

// Invocation is one subprocess to run.
type Invocation struct {
	Command []string // Program followed by its arguments
	Dir     string   // Working directory; the parent process never changes its own
	Env     []string // Additional KEY=VALUE entries on top of the parent environment
}

// String renders the command line for diagnostics.
func (i Invocation) String() string {
	return strings.Join(i.Command, " ")
}

// Sphinx describes how to invoke the builder for a job.
type Sphinx struct {
	Command   []string // e.g. python3 -u -m sphinx.cmd.build
	ConfigDir string   // Passed as -D config_dir when set
	FastBuild bool     // Exports DOCS_FAST_BUILD=y
}

// SphinxBuilderName maps a requested builder to the sphinx builder name. The
// pdf builder is produced from latex output.
func SphinxBuilderName(builder string) string {
	if builder == "pdf" {
		return "latex"
	}
	return builder
}

// WantsPDF reports whether the PDF step runs after the builders.
func WantsPDF(builders []string) bool {
	return slices.Contains(builders, "pdf") || slices.Contains(builders, "latex")
}

// Invocation returns the builder invocation for job, running in the job's
// build directory.
func (s Sphinx) Invocation(job matrix.Job, builder string) Invocation {
	builder = SphinxBuilderName(builder)

	args := slices.Clone(s.Command)
	args = append(args,
		"-j", strconv.Itoa(max(job.ParallelJobs, 1)),
		"-b", builder,
		"-d", filepath.Join(job.BuildDir, "doctrees"),
		"-w", filepath.Join(job.BuildDir, warnings.SphinxLog),
	)
	if job.Target != targets.Generic {
		args = append(args, "-t", job.Target, "-D", "idf_target="+job.Target)
	}
	args = append(args, "-D", "docs_to_build="+strings.Join(job.InputDocs, ","))
	if s.ConfigDir != "" {
		args = append(args, "-D", "config_dir="+absOr(s.ConfigDir))
	}
	args = append(args,
		"-D", "doxyfile_dir="+absOr(job.DoxyfileDir),
		"-D", "project_path="+absOr(job.ProjectPath),
		job.SourceDir,
		filepath.Join(job.BuildDir, builder),
	)

	env := []string{"BUILDDIR=" + job.BuildDir}
	if s.FastBuild {
		env = append(env, "DOCS_FAST_BUILD=y")
	}
	return Invocation{Command: args, Dir: job.BuildDir, Env: env}
}

// LatexmkArgs are the flags used to turn the latex output into a PDF. With -f
// latexmk keeps going on errors but still reports failure.
var LatexmkArgs = []string{
	"-r", "latexmkrc",
	"-pdf",
	"-f",
	"-dvi-",
	"-ps-",
	"-interaction=nonstopmode",
	"-quiet",
	"-outdir=build",
}

// LatexmkInvocation returns the PDF step for job, run in <build_dir>/latex.
func LatexmkInvocation(command []string, job matrix.Job) Invocation {
	if len(command) == 0 {
		command = []string{"latexmk"}
	}
	args := slices.Concat(command, LatexmkArgs)
	return Invocation{Command: args, Dir: filepath.Join(job.BuildDir, "latex")}
}

// HasDoxyfile reports whether dir holds a Doxyfile, either directly or in the
// legacy doxygen/ subdirectory.
func HasDoxyfile(dir string) bool {
	for _, p := range []string{
		filepath.Join(dir, "Doxyfile"),
		filepath.Join(dir, "doxygen", "Doxyfile"),
	} {
		if st, err := os.Stat(p); err == nil && st.Mode().IsRegular() {
			return true
		}
	}
	return false
}

func absOr(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
