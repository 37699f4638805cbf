package errors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "build failure", err: BuildError("documentation build failed").Build(), expected: 1},
		{name: "config error", err: ConfigError("bad config").Build(), expected: 1},
		{name: "interrupted", err: InterruptedError("interrupted").Build(), expected: 130},
		{name: "wrapped context canceled", err: fmt.Errorf("run: %w", context.Canceled), expected: 130},
		{name: "unclassified error", err: errors.New("unknown error"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.ExitCodeFor(tt.err)
			if got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	cause := errors.New("permission denied")

	tests := []struct {
		name     string
		verbose  bool
		err      error
		contains string
		excludes string
	}{
		{name: "nil error", err: nil, contains: ""},
		{
			name:     "classified error hides category tags when not verbose",
			err:      WrapError(cause, CategoryFileSystem, "cannot create build directory").Build(),
			contains: "cannot create build directory: permission denied",
			excludes: "[filesystem",
		},
		{
			name:     "verbose shows the full chain",
			verbose:  true,
			err:      WrapError(cause, CategoryFileSystem, "cannot create build directory").Build(),
			contains: "[filesystem:error]",
		},
		{
			name:     "unclassified error",
			err:      errors.New("boom"),
			contains: "Error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewCLIErrorAdapter(tt.verbose, slog.Default())
			got := adapter.FormatError(tt.err)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("FormatError() = %q, want to contain %q", got, tt.contains)
			}
			if tt.excludes != "" && strings.Contains(got, tt.excludes) {
				t.Errorf("FormatError() = %q, must not contain %q", got, tt.excludes)
			}
		})
	}
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logs, out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	adapter := NewCLIErrorAdapter(false, logger)
	adapter.out = &out

	code := adapter.Report(ConfigError("unknown target").WithContext("target", "esp99").Build())

	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(out.String(), "unknown target") {
		t.Errorf("expected message on output, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "target=esp99") {
		t.Errorf("expected context in log, got %q", logs.String())
	}
}
