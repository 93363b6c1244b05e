package ssr

import (
	"fmt"
	"strings"
)

// Mode selects how client assets are served.
type Mode string

const (
	// ModeProduction serves the pre-built client bundle.
	ModeProduction Mode = "production"
	// ModeDevelopment proxies to the JavaScript dev server.
	ModeDevelopment Mode = "development"
)

// ParseMode parses a mode name. The empty string means development, so only
// an explicit production setting serves built assets.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return ModeProduction, nil
	case "development", "dev", "":
		return ModeDevelopment, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	return string(m)
}

// IsProduction reports whether m is ModeProduction.
func (m Mode) IsProduction() bool {
	return m == ModeProduction
}
