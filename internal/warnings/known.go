package warnings

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// LoadKnown reads an allow-list, one sanitized message per line, preserving
// order. A missing file yields an empty list.
func LoadKnown(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open known warnings: %w", err)
	}
	defer func() { _ = f.Close() }()

	var known []string
	err = eachLine(f, func(line string) error {
		known = append(known, strings.TrimRight(line, "\r\n"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read known warnings %s: %w", path, err)
	}
	return known, nil
}

// eachLine calls fn for every line of r, including a final unterminated one.
// Lines of any length are supported.
func eachLine(r io.Reader, fn func(line string) error) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if ferr := fn(line); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
