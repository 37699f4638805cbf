// Package errors provides foundational, type-safe error primitives used across esp-docs.
//
// Key features:
//   - ErrorCategory: broad classification (config, build, warnings, links, interrupted, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - ClassifiedError: structured error with category, severity, cause and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit code mapping and user-facing formatting
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "failed to read warning log").
//		WithContext("language", "en").
//		WithContext("target", "esp32").
//		Build()
package errors
