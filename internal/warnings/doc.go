// Package warnings reconciles build warning logs against known-warnings
// allow-lists.
//
// Log lines are sanitized (leading path, line numbers and duplicate-definition
// line numbers are stripped) and matched in order against the allow-list with a
// forward-only cursor. Any line not matched from the cursor onwards is reported
// as a new warning and fails the check.
package warnings

// Well-known log file names inside a job build directory and allow-list names
// inside the known-warnings directory.
const (
	SphinxLog           = "sphinx-warning-log.txt"
	SphinxSanitizedLog  = "sphinx-warning-log-sanitized.txt"
	SphinxKnownWarnings = "sphinx-known-warnings.txt"

	DoxygenLog           = "doxygen-warning-log.txt"
	DoxygenSanitizedLog  = "doxygen-warning-log-sanitized.txt"
	DoxygenKnownWarnings = "doxygen-known-warnings.txt"
)
