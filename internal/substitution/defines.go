package substitution

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var defineRe = regexp.MustCompile(`#define ([^ ]+) ?(.*)`)

// ParseDefines reads C preprocessor definitions ("#define NAME VALUE"), as
// found in *_caps.h headers or `gcc -dM -E` output. Names starting with an
// underscore are skipped. Values spanning several tokens are recorded as
// empty, marking the macro as defined only.
func ParseDefines(r io.Reader) (map[string]string, error) {
	defines := make(map[string]string)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		m := defineRe.FindStringSubmatch(strings.TrimSpace(sc.Text()))
		if m == nil {
			continue
		}
		name, value := m[1], m[2]
		if strings.HasPrefix(name, "_") {
			continue
		}
		if strings.ContainsAny(value, " =") {
			value = ""
		}
		defines[name] = value
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read defines: %w", err)
	}
	return defines, nil
}
