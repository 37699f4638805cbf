package config

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	ferrors "git.home.luguber.info/inful/espdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/espdocs/internal/targets"
)

// Validate checks the configuration for values the build cannot use.
func Validate(cfg *Config) error {
	for _, lang := range cfg.Languages {
		if err := ValidateLanguage(lang); err != nil {
			return err
		}
	}
	for _, t := range cfg.Targets {
		if err := ValidateTarget(t); err != nil {
			return err
		}
	}
	if err := ValidateParallelBuilds(cfg.Builder.ParallelBuilds); err != nil {
		return err
	}
	if _, err := time.ParseDuration(cfg.Watch.Debounce); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid watch debounce").
			Fatal().WithContext("debounce", cfg.Watch.Debounce).Build()
	}
	if org, repo, ok := strings.Cut(cfg.GHLinkcheck.Repository, "/"); !ok || org == "" || repo == "" || strings.Contains(repo, "/") {
		return ferrors.ValidationError("gh_linkcheck.repository must be <org>/<repo>").
			WithContext("repository", cfg.GHLinkcheck.Repository).Build()
	}
	return nil
}

// ValidateLanguage accepts only the supported documentation languages. The
// code must also be a well-formed BCP 47 tag once '_' is read as '-'.
func ValidateLanguage(lang string) error {
	if _, err := language.Parse(strings.ReplaceAll(lang, "_", "-")); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "malformed language code").
			Fatal().WithContext("language", lang).Build()
	}
	if !slices.Contains(targets.Languages, lang) {
		return ferrors.ValidationError("unsupported language").
			WithContext("language", lang).
			WithContext("supported", strings.Join(targets.Languages, ", ")).Build()
	}
	return nil
}

// ValidateTarget accepts only targets from the known target table.
func ValidateTarget(t string) error {
	if !targets.Known(t) {
		return ferrors.ValidationError("unsupported target").
			WithContext("target", t).
			WithContext("supported", strings.Join(targets.IDs(), ", ")).Build()
	}
	return nil
}

// ValidateParallelBuilds accepts "auto" or a positive integer.
func ValidateParallelBuilds(v string) error {
	if v == "auto" {
		return nil
	}
	if n, err := strconv.Atoi(v); err != nil || n < 1 {
		return ferrors.ValidationError(`parallel builds must be "auto" or a positive integer`).
			WithContext("value", v).Build()
	}
	return nil
}
