package reqs

import (
	"bufio"
	"bytes"
	"cmp"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var clauseRe = regexp.MustCompile(`^\s*(~=|===|==|!=|>=|<=|>|<)\s*([^\s,]+)\s*$`)

// Satisfies reports whether version meets every comma-separated clause of
// spec, e.g. ">=4.0,<5". Only release segments are compared; pre-release,
// post-release and local segments are ignored. An empty spec accepts any
// version.
func Satisfies(version, spec string) (bool, error) {
	if strings.TrimSpace(spec) == "" {
		return true, nil
	}
	for clause := range strings.SplitSeq(spec, ",") {
		m := clauseRe.FindStringSubmatch(clause)
		if m == nil {
			return false, fmt.Errorf("invalid version specifier %q", strings.TrimSpace(clause))
		}
		if !matchClause(version, m[1], m[2]) {
			return false, nil
		}
	}
	return true, nil
}

func matchClause(version, op, want string) bool {
	switch op {
	case "===":
		return version == want
	case "==", "!=":
		var equal bool
		if prefix, ok := strings.CutSuffix(want, ".*"); ok {
			equal = hasReleasePrefix(release(version), release(prefix))
		} else {
			equal = compareVersions(version, want) == 0
		}
		return equal == (op == "==")
	case ">=":
		return compareVersions(version, want) >= 0
	case "<=":
		return compareVersions(version, want) <= 0
	case ">":
		return compareVersions(version, want) > 0
	case "<":
		return compareVersions(version, want) < 0
	case "~=":
		r := release(want)
		if len(r) < 2 {
			return false
		}
		return compareVersions(version, want) >= 0 && hasReleasePrefix(release(version), r[:len(r)-1])
	}
	return false
}

// release returns the numeric release segments of v ("4.5.0rc1" -> [4 5 0]).
func release(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexFunc(v, func(r rune) bool { return r != '.' && (r < '0' || r > '9') }); i >= 0 {
		v = v[:i]
	}
	var out []int
	for p := range strings.SplitSeq(strings.Trim(v, "."), ".") {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		out = append(out, n)
	}
	return out
}

func segment(r []int, i int) int {
	if i < len(r) {
		return r[i]
	}
	return 0
}

func compareVersions(a, b string) int {
	ra, rb := release(a), release(b)
	for i := range max(len(ra), len(rb)) {
		if c := cmp.Compare(segment(ra, i), segment(rb, i)); c != 0 {
			return c
		}
	}
	return 0
}

func hasReleasePrefix(r, prefix []int) bool {
	for i, p := range prefix {
		if segment(r, i) != p {
			return false
		}
	}
	return true
}

// showVersion extracts the "Version:" field from pip show output.
func showVersion(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if v, ok := strings.CutPrefix(sc.Text(), "Version:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
