package config

import (
	"fmt"

	"git.home.luguber.info/inful/contractcatalog/internal/foundation/normalization"
)

// ExternalMode decides when collaborating command line tools are used.
type ExternalMode string

const (
	// ExternalAuto uses a tool when it is found on PATH.
	ExternalAuto   ExternalMode = "auto"
	ExternalAlways ExternalMode = "always" // missing tools fail the run
	ExternalNever  ExternalMode = "never"
)

var externalModes = []ExternalMode{ExternalAuto, ExternalAlways, ExternalNever}

var externalModeNormalizer = normalization.NewNormalizer(map[string]ExternalMode{
	"auto":   ExternalAuto,
	"always": ExternalAlways,
	"never":  ExternalNever,
}, ExternalAuto)

// NormalizeExternalMode maps raw onto a mode, defaulting to auto.
func NormalizeExternalMode(raw string) ExternalMode {
	return externalModeNormalizer.Normalize(raw)
}

// ParseExternalMode is NormalizeExternalMode that rejects unknown values.
func ParseExternalMode(raw string) (ExternalMode, error) {
	m, err := externalModeNormalizer.NormalizeWithError(raw)
	if err != nil {
		return "", fmt.Errorf("external tools mode: %w", err)
	}
	return m, nil
}
