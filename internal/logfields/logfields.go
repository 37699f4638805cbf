package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyLanguage   = "language"
	KeyTarget     = "target"
	KeyBuilder    = "builder"
	KeyJob        = "job"
	KeyWorkers    = "workers"
	KeyExitCode   = "exit_code"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyCommand    = "command"
	KeyCount      = "count"
	KeySchedule   = "schedule"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Language(l string) slog.Attr     { return slog.String(KeyLanguage, l) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Builder(b string) slog.Attr      { return slog.String(KeyBuilder, b) }
func Job(name string) slog.Attr       { return slog.String(KeyJob, name) }
func Workers(n int) slog.Attr         { return slog.Int(KeyWorkers, n) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Schedule(s string) slog.Attr     { return slog.String(KeySchedule, s) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
