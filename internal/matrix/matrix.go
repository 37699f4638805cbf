// Package matrix expands a (language × target) selection into independent build jobs.
package matrix

import (
	"fmt"
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/espdocs/internal/targets"
)

// Job is one (language, target) build. Each job writes only below BuildDir.
type Job struct {
	Language     string
	Target       string
	BuildDir     string
	SourceDir    string
	Builders     []string
	ParallelJobs int
	InputDocs    []string
	DoxyfileDir  string
	ProjectPath  string
}

// Name returns the "<language>/<target>" label used in output prefixes.
func (j Job) Name() string {
	return j.Language + "/" + j.Target
}

// Request describes the selection to expand.
type Request struct {
	Language    string   // Empty selects every supported language
	Languages   []string // Supported languages; targets.Languages when empty
	Targets     []string // Empty selects the generic target
	BuildBase   string
	SourceBase  string
	Builders    []string
	InputDocs   []string
	DoxyfileDir string
	ProjectPath string
}

// Expand builds the job list: targets outer, languages inner. Directories are
// resolved to absolute paths. Duplicate (language, target) pairs are rejected
// since two jobs would share a build directory.
func Expand(req Request) ([]Job, error) {
	languages := req.Languages
	if len(languages) == 0 {
		languages = targets.Languages
	}
	if req.Language != "" {
		languages = []string{req.Language}
	}

	tgts := req.Targets
	if len(tgts) == 0 {
		tgts = []string{targets.Generic}
	}

	doxyfileDir, err := filepath.Abs(req.DoxyfileDir)
	if err != nil {
		return nil, fmt.Errorf("resolve doxyfile dir: %w", err)
	}
	projectPath, err := filepath.Abs(req.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}

	inputDocs := req.InputDocs
	if len(inputDocs) == 0 {
		inputDocs = []string{""}
	}

	seen := make(map[string]struct{}, len(tgts)*len(languages))
	jobs := make([]Job, 0, len(tgts)*len(languages))
	for _, target := range tgts {
		for _, lang := range languages {
			key := lang + "/" + target
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("duplicate build job %s", key)
			}
			seen[key] = struct{}{}

			buildDir, err := filepath.Abs(filepath.Join(req.BuildBase, lang, target))
			if err != nil {
				return nil, fmt.Errorf("resolve build dir: %w", err)
			}
			sourceDir, err := filepath.Abs(filepath.Join(req.SourceBase, lang))
			if err != nil {
				return nil, fmt.Errorf("resolve source dir: %w", err)
			}

			jobs = append(jobs, Job{
				Language:     lang,
				Target:       target,
				BuildDir:     buildDir,
				SourceDir:    sourceDir,
				Builders:     slices.Clone(req.Builders),
				ParallelJobs: 1,
				InputDocs:    slices.Clone(inputDocs),
				DoxyfileDir:  doxyfileDir,
				ProjectPath:  projectPath,
			})
		}
	}
	return jobs, nil
}
