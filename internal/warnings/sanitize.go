package warnings

import (
	"regexp"
	"strings"
)

// LogMessage is one log line in its original and sanitized form.
type LogMessage struct {
	Original  string
	Sanitized string
}

var (
	filenameRe         = regexp.MustCompile(`[^:]*/([^/:]*)(:.*)`)
	lineNumberRe       = regexp.MustCompile(`([^:]*)(:[0-9]+:)(.*)`)
	duplicateLineNumRe = regexp.MustCompile(`([^:]*)(:[0-9]+\.)(.*)`)
)

// Sanitize removes the insignificant parts of a log line: the path before the
// file name, ":<n>:" line numbers and ":<n>." duplicate-definition line numbers.
// Passes repeat until the line stops changing, so Sanitize(Sanitize(x)) == Sanitize(x).
// Every changing pass shortens the line or removes digits, so the loop ends.
func Sanitize(line string) string {
	line = strings.TrimRight(line, "\r\n")
	for {
		next := sanitizeOnce(line)
		if next == line {
			return line
		}
		line = next
	}
}

func sanitizeOnce(line string) string {
	line = filenameRe.ReplaceAllString(line, "${1}${2}")
	line = lineNumberRe.ReplaceAllString(line, "${1}:line:${3}")
	line = duplicateLineNumRe.ReplaceAllString(line, "${1}:line.${3}")
	return line
}

// NewLogMessage pairs a raw line with its sanitized form.
func NewLogMessage(line string) LogMessage {
	return LogMessage{
		Original:  strings.TrimRight(line, "\r\n"),
		Sanitized: Sanitize(line),
	}
}
