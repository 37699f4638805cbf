// Package substitution replaces {IDF_TARGET_*} tags in reStructuredText sources
// with per-target values.
//
// A Substituter is an explicit value owned by one build job; there is no
// process-wide table.
package substitution

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/espdocs/internal/targets"
)

// FileName is the table dump written into each job's build directory.
const FileName = "IDF_TARGET-substitutions.txt"

var (
	localDefRe   = regexp.MustCompile(`(?m)^\s*{IDF_TARGET_(\w+?):(.+?)}`)
	defaultRe    = regexp.MustCompile(`^\s*default(\s*)=(\s*)"(.*?)"`)
	unresolvedRe = regexp.MustCompile(`{IDF_TARGET_.*?}`)
)

// Substituter holds the substitution table of one target.
type Substituter struct {
	target string
	tags   []string
	values map[string]string
}

// New returns an empty substituter for target.
func New(target string) *Substituter {
	return &Substituter{target: target, values: make(map[string]string)}
}

// ForTarget seeds a substituter with the standard per-target tags.
func ForTarget(id string) (*Substituter, error) {
	t, ok := targets.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("unknown target %q", id)
	}
	s := New(id)
	s.Add("{IDF_TARGET_NAME}", t.Name)
	s.Add("{IDF_TARGET_PATH_NAME}", t.ID)
	s.Add("{IDF_TARGET_TOOLCHAIN_PREFIX}", t.ToolchainPrefix)
	s.Add("{IDF_TARGET_CFG_PREFIX}", t.CfgPrefix())
	s.Add("{IDF_TARGET_TRM_EN_URL}", t.TRMEnURL)
	s.Add("{IDF_TARGET_TRM_CN_URL}", t.TRMCnURL)
	s.Add("{IDF_TARGET_DATASHEET_EN_URL}", t.DatasheetEnURL)
	s.Add("{IDF_TARGET_DATASHEET_CN_URL}", t.DatasheetCnURL)
	return s, nil
}

// Add sets the value of tag, keeping first-insertion order.
func (s *Substituter) Add(tag, value string) {
	if _, ok := s.values[tag]; !ok {
		s.tags = append(s.tags, tag)
	}
	s.values[tag] = value
}

// AddValues registers {IDF_TARGET_<name>} tags from C-style constant values,
// trimming surrounding parentheses and U/UL suffixes ("(16UL)" -> "16").
func (s *Substituter) AddValues(values map[string]string) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		v := strings.Trim(values[name], "()")
		v = strings.TrimSuffix(v, "UL")
		v = strings.TrimSuffix(v, "U")
		s.Add("{IDF_TARGET_"+name+"}", v)
	}
}

// Substitute applies local definitions of the form
// {IDF_TARGET_X:default="a",esp32="b"} (removing them from the content), then
// the table.
func (s *Substituter) Substitute(content string) (string, error) {
	local, err := s.localDefinitions(content)
	if err != nil {
		return "", err
	}
	content = localDefRe.ReplaceAllString(content, "")

	for _, d := range local {
		content = strings.ReplaceAll(content, d.tag, d.value)
	}
	for _, tag := range s.tags {
		content = strings.ReplaceAll(content, tag, s.values[tag])
	}
	return content, nil
}

type localDef struct {
	tag, value string
}

func (s *Substituter) localDefinitions(content string) ([]localDef, error) {
	matches := localDefRe.FindAllStringSubmatch(content, -1)
	defs := make([]localDef, 0, len(matches))
	for _, m := range matches {
		tag := "{IDF_TARGET_" + m[1] + "}"
		def := defaultRe.FindStringSubmatch(m[2])
		if def == nil {
			return nil, fmt.Errorf("no default value in IDF_TARGET_X substitution define, val=%s", m[0])
		}
		value := def[3]
		if s.target != "" {
			targetRe := regexp.MustCompile(`^.*` + regexp.QuoteMeta(s.target) + `\b(.*?)=(\s*)"(.*?)"`)
			if tm := targetRe.FindStringSubmatch(m[2]); tm != nil {
				value = tm[3]
			}
		}
		defs = append(defs, localDef{tag: tag, value: value})
	}
	return defs, nil
}

// Unresolved returns the {IDF_TARGET_*} tags still present in content.
func Unresolved(content string) []string {
	return unresolvedRe.FindAllString(content, -1)
}

// WriteTable writes the table, one "tag: value" per line, in insertion order.
func (s *Substituter) WriteTable(w io.Writer) error {
	for _, tag := range s.tags {
		if _, err := fmt.Fprintf(w, "%s: %s\n", tag, s.values[tag]); err != nil {
			return err
		}
	}
	return nil
}

// SaveTable writes the table to <buildDir>/IDF_TARGET-substitutions.txt.
func (s *Substituter) SaveTable(buildDir string) (string, error) {
	path := filepath.Join(buildDir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create substitution table: %w", err)
	}
	if err := s.WriteTable(f); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write substitution table: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close substitution table: %w", err)
	}
	return path, nil
}
