package warnings

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

var errLogMissing = errors.New("log not generated")

// anonymousMemberRe matches doxygen complaints about undocumented anonymous
// struct/union members (the last scope component is ::@<n>).
var anonymousMemberRe = regexp.MustCompile(`^.+:line: warning: parameters of member [^:\s]+(::[^:\s]+)*(::@\d+)+ are not \(all\) documented`)

// FindNew returns the messages that are not matched by known using a
// forward-only cursor: each message is searched for from the cursor onwards; a
// hit moves the cursor just past the matching entry, a miss marks the message
// new and leaves the cursor in place. Entries before the cursor are never
// revisited.
func FindNew(messages []LogMessage, known []string) []LogMessage {
	var fresh []LogMessage
	cursor := 0
	for _, msg := range messages {
		idx := slices.Index(known[cursor:], msg.Sanitized)
		if idx < 0 {
			fresh = append(fresh, msg)
			continue
		}
		cursor += idx + 1
	}
	return fresh
}

// DropAnonymousMembers removes doxygen anonymous-member messages.
func DropAnonymousMembers(messages []LogMessage) []LogMessage {
	return slices.DeleteFunc(slices.Clone(messages), func(m LogMessage) bool {
		return anonymousMemberRe.MatchString(m.Sanitized)
	})
}

// IsDoxygenAllowList reports whether the allow-list at path receives the
// doxygen-specific filtering.
func IsDoxygenAllowList(path string) bool {
	return strings.Contains(filepath.Base(path), "doxygen")
}

// Result is the outcome of one reconciliation.
type Result struct {
	Messages    int          // Lines read from the log
	NewMessages []LogMessage // Lines not covered by the allow-list
	Missing     bool         // The log file did not exist
}

// Failed reports whether the result fails the job.
func (r Result) Failed() bool {
	return r.Missing || len(r.NewMessages) > 0
}

// Reconciler checks logs and reports to Out. Each report is written with a
// single Write so concurrent jobs sharing a serialized sink do not interleave.
type Reconciler struct {
	Out io.Writer
}

// Check reconciles logFile against knownFile, writes the sanitized log to
// sanitizedFile and prints new warnings prefixed with "<language>/<target>: ".
// It returns 0 on success and 1 when the log is missing or has new warnings.
func (r *Reconciler) Check(language, target, logFile, knownFile, sanitizedFile string) int {
	code, _ := r.CheckResult(language, target, logFile, knownFile, sanitizedFile)
	return code
}

// CheckResult is Check also returning the reconciliation result.
func (r *Reconciler) CheckResult(language, target, logFile, knownFile, sanitizedFile string) (int, Result) {
	res, err := r.Reconcile(language, target, logFile, knownFile, sanitizedFile)
	if err != nil {
		r.write(fmt.Sprintf("%s/%s: warning check failed: %v\n", language, target, err))
		return 1, res
	}
	if res.Failed() {
		return 1, res
	}
	return 0, res
}

// Reconcile is Check returning the detailed result. I/O errors other than a
// missing log are returned as errors.
func (r *Reconciler) Reconcile(language, target, logFile, knownFile, sanitizedFile string) (Result, error) {
	messages, err := sanitizeLog(logFile, sanitizedFile)
	if errors.Is(err, errLogMissing) {
		r.write(fmt.Sprintf("%s not generated\n", logFile))
		return Result{Missing: true}, nil
	}
	if err != nil {
		return Result{}, err
	}

	known, err := LoadKnown(knownFile)
	if err != nil {
		return Result{}, err
	}

	res := Result{Messages: len(messages)}
	if IsDoxygenAllowList(knownFile) {
		messages = DropAnonymousMembers(messages)
	}
	res.NewMessages = FindNew(messages, known)

	if len(res.NewMessages) > 0 {
		r.write(formatReport(language, target, logFile, knownFile, res.NewMessages))
	}
	return res, nil
}

func formatReport(language, target, logFile, knownFile string, fresh []LogMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s/%s: Build failed due to new/different warnings (%s):\n\n", language, target, logFile)
	for _, msg := range fresh {
		fmt.Fprintf(&b, "%s/%s: %s\n", language, target, msg.Original)
	}
	fmt.Fprintf(&b, "\n%s/%s: (Check files %s and %s for full details.)\n", language, target, knownFile, logFile)
	return b.String()
}

func (r *Reconciler) write(s string) {
	if r.Out == nil {
		return
	}
	_, _ = io.WriteString(r.Out, s)
}

// sanitizeLog streams logFile, writing each sanitized line to sanitizedFile as
// it is read. The sanitized file is not created when the log is missing.
func sanitizeLog(logFile, sanitizedFile string) ([]LogMessage, error) {
	in, err := os.Open(logFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errLogMissing
	}
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(sanitizedFile)
	if err != nil {
		return nil, fmt.Errorf("create sanitized log: %w", err)
	}

	messages, err := sanitizeStream(in, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("sanitize %s: %w", logFile, err)
	}
	return messages, nil
}

// sanitizeStream writes each sanitized line of r to w before reading the next.
func sanitizeStream(r io.Reader, w io.Writer) ([]LogMessage, error) {
	var messages []LogMessage
	err := eachLine(r, func(line string) error {
		msg := NewLogMessage(line)
		messages = append(messages, msg)
		_, werr := io.WriteString(w, msg.Sanitized+"\n")
		return werr
	})
	return messages, err
}
