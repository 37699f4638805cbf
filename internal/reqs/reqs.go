// Package reqs verifies that the Python requirements of the documentation
// project are installed before any build starts.
package reqs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// FileName is looked up in the working directory.
const FileName = "requirements.txt"

var (
	eggRe  = regexp.MustCompile(`#egg=([^\s]+)`)
	nameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*`)
)

// Requirement is one line of a requirements file.
type Requirement struct {
	Line string // Requirement as written, after file:// and -e adjustments
	Name string // Distribution name passed to pip
	Spec string // Version specifier, e.g. ">=4.0,<5"; empty accepts any version
}

// Parse reads requirement lines. file:// entries are reduced to their base
// name and editable VCS entries to their #egg= name. Comments, blank lines and
// other pip options are skipped.
func Parse(r io.Reader) ([]Requirement, error) {
	var out []Requirement
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "file://") {
			line = filepath.Base(line)
		}
		if strings.HasPrefix(line, "-e") && strings.Contains(line, "#egg=") {
			if m := eggRe.FindStringSubmatch(line); m != nil {
				line = m[1]
			}
		}
		if strings.HasPrefix(line, "-") {
			continue
		}
		name := nameRe.FindString(line)
		if name == "" {
			continue
		}
		out = append(out, Requirement{Line: line, Name: name, Spec: versionSpec(line[len(name):])})
	}
	return out, sc.Err()
}

// versionSpec strips extras, environment markers and direct references from
// the text following a requirement name.
func versionSpec(rest string) string {
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "[") {
		if i := strings.Index(rest, "]"); i >= 0 {
			rest = rest[i+1:]
		}
	}
	if i := strings.IndexAny(rest, ";@"); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")")
	return strings.TrimSpace(rest)
}

// SatisfiedFunc reports whether a requirement is installed at an accepted
// version.
type SatisfiedFunc func(ctx context.Context, r Requirement) bool

// PipShow looks the distribution up with "<python> -m pip show <name>" and
// checks the reported version against the requirement's specifier.
func PipShow(python string) SatisfiedFunc {
	return func(ctx context.Context, r Requirement) bool {
		out, err := exec.CommandContext(ctx, python, "-m", "pip", "show", r.Name).Output()
		if err != nil {
			return false
		}
		return versionAccepted(showVersion(out), r.Spec)
	}
}

func versionAccepted(version, spec string) bool {
	if version == "" {
		return strings.TrimSpace(spec) == ""
	}
	ok, err := Satisfies(version, spec)
	return err == nil && ok
}

// Checker validates a requirements file.
type Checker struct {
	Satisfied SatisfiedFunc
}

// Missing returns requirements from path that are not installed. A missing
// file is not an error and yields no requirements.
func (c Checker) Missing(ctx context.Context, path string) ([]Requirement, error) {
	f, err := os.Open(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	all, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var missing []Requirement
	for _, r := range all {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !c.Satisfied(ctx, r) {
			missing = append(missing, r)
		}
	}
	return missing, nil
}

// Report prints the unsatisfied requirements with a hint.
func Report(w io.Writer, missing []Requirement) {
	fmt.Fprintln(w, "The following Python requirements from the current directory's requirements.txt are not satisfied:")
	for _, r := range missing {
		fmt.Fprintln(w, r.Line)
	}
	fmt.Fprintln(w, "This check can be skipped by running with --skip-reqs-check")
}
