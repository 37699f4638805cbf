// Package ghlinks finds hardcoded GitHub links to the documented repository in
// documentation sources. Such links should use the version-aware roles instead.
package ghlinks

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/net/html"
)

// Finding is one hardcoded link.
type Finding struct {
	Path string
	Link string
}

// Scanner walks a documentation tree looking for hardcoded links.
type Scanner struct {
	pattern    *regexp.Regexp
	allowed    map[string]struct{}
	extensions []string
	ignore     *gitignore.GitIgnore
}

// Options configures a Scanner.
type Options struct {
	Repository string   // <org>/<repo>
	Allowed    []string // Exact links that may stay hardcoded
	Extensions []string // File extensions to scan; .html files are parsed as HTML
	Ignore     *gitignore.GitIgnore
}

// NewScanner compiles the link pattern for opts.Repository.
func NewScanner(opts Options) *Scanner {
	allowed := make(map[string]struct{}, len(opts.Allowed))
	for _, a := range opts.Allowed {
		allowed[a] = struct{}{}
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".rst"}
	}
	return &Scanner{
		pattern:    Pattern(opts.Repository),
		allowed:    allowed,
		extensions: exts,
		ignore:     opts.Ignore,
	}
}

// Pattern matches tree, blob and raw links into repository.
func Pattern(repository string) *regexp.Regexp {
	return regexp.MustCompile(`https://github\.com/` + regexp.QuoteMeta(repository) + `/(?:tree|blob|raw)/[^\s]+`)
}

// Scan walks root in lexical order. Directories whose path contains "_build"
// and paths matched by the ignore rules are skipped.
func (s *Scanner) Scan(root string) ([]Finding, error) {
	var findings []Finding
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if d.IsDir() {
			if strings.Contains(rel, "_build") || (rel != "." && s.ignored(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !slices.Contains(s.extensions, ext) || s.ignored(rel) {
			return nil
		}

		links, err := s.scanFile(path, ext)
		if err != nil {
			return err
		}
		for _, l := range links {
			if _, ok := s.allowed[l]; !ok {
				findings = append(findings, Finding{Path: path, Link: l})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return findings, nil
}

func (s *Scanner) ignored(rel string) bool {
	return s.ignore != nil && s.ignore.MatchesPath(filepath.ToSlash(rel))
}

func (s *Scanner) scanFile(path, ext string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if ext == ".html" || ext == ".htm" {
		return s.scanHTML(f)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return s.pattern.FindAllString(string(data), -1), nil
}

// scanHTML checks href and src attribute values of HTML sources such as
// Sphinx templates.
func (s *Scanner) scanHTML(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var links []string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, attr := range n.Attr {
				if attr.Key != "href" && attr.Key != "src" {
					continue
				}
				links = append(links, s.pattern.FindAllString(attr.Val, -1)...)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return links, nil
}

// LoadIgnore compiles the .gitignore at the root of dir. It returns nil when
// there is none.
func LoadIgnore(dir string) (*gitignore.GitIgnore, error) {
	path := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	ig, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read .gitignore: %w", err)
	}
	return ig, nil
}

// roleHints lists the roles that replace hardcoded links.
var roleHints = []string{
	":idf:`dir` - points to directory inside ESP-IDF",
	":idf_file:`file` - points to file inside ESP-IDF",
	":idf_raw:`file` - points to raw view of the file inside ESP-IDF",
	":component:`dir` - points to directory inside ESP-IDF components dir",
	":component_file:`file` - points to file inside ESP-IDF components dir",
	":component_raw:`file` - points to raw view of the file inside ESP-IDF components dir",
	":example:`dir` - points to directory inside ESP-IDF examples dir",
	":example_file:`file` - points to file inside ESP-IDF examples dir",
	":example_raw:`file` - points to raw view of the file inside ESP-IDF examples dir",
}

// Report prints findings with replacement hints and returns 1 when there are
// any, 0 otherwise.
func Report(w io.Writer, findings []Finding) int {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No hardcoded links found")
		return 0
	}
	for _, f := range findings {
		fmt.Fprintf(w, "%s: %s\n", f.Path, f.Link)
	}
	fmt.Fprintln(w, "WARNING: Some .rst files contain hardcoded Github links.")
	fmt.Fprintln(w, "Please check above output and replace links with one of the following:")
	for _, h := range roleHints {
		fmt.Fprintf(w, "- %s\n", h)
	}
	fmt.Fprintln(w, "These link types will point to the correct GitHub version automatically")
	return 1
}
