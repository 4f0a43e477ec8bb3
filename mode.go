package themepdf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Mode is the color mode applied to a theme.
type Mode string

// Color modes. ModeSystem follows the viewer's preference and must be
// resolved before export.
const (
	ModeLight  Mode = "light"
	ModeDark   Mode = "dark"
	ModeSystem Mode = "system"
)

// Override classes appended to the paper root to force a mode.
const (
	classForceLight = "force-light-mode"
	classForceDark  = "force-dark-mode"
)

// ParseMode parses a mode name. "app-match" is accepted as an alias for system.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return ModeLight, nil
	case "dark":
		return ModeDark, nil
	case "system", "app-match", "auto", "":
		return ModeSystem, nil
	default:
		return "", fmt.Errorf("%w: %q (must be light, dark, or system)", ErrInvalidMode, s)
	}
}

// Validate reports whether m is a known mode.
func (m Mode) Validate() error {
	switch m {
	case ModeLight, ModeDark, ModeSystem:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, string(m))
	}
}

// IsResolved reports whether m is concrete (light or dark).
func (m Mode) IsResolved() bool {
	return m == ModeLight || m == ModeDark
}

// Resolve returns a concrete mode. Light and dark are returned unchanged,
// so Resolve is idempotent. A nil preference resolves system to light.
func (m Mode) Resolve(pref SystemPreference) Mode {
	if m.IsResolved() {
		return m
	}
	if pref != nil && pref.PrefersDark() {
		return ModeDark
	}
	return ModeLight
}

// OverrideClass returns the class that pins the paper to m,
// or "" when the page's own preference should apply.
func (m Mode) OverrideClass() string {
	switch m {
	case ModeLight:
		return classForceLight
	case ModeDark:
		return classForceDark
	default:
		return ""
	}
}

func (m Mode) String() string { return string(m) }

// SystemPreference reports the viewer's preferred color scheme.
type SystemPreference interface {
	PrefersDark() bool
}

// StaticPreference is a fixed preference.
type StaticPreference bool

// PrefersDark implements SystemPreference.
func (p StaticPreference) PrefersDark() bool { return bool(p) }

// PreferenceFunc adapts a function to SystemPreference.
type PreferenceFunc func() bool

// PrefersDark implements SystemPreference.
func (f PreferenceFunc) PrefersDark() bool { return f() }

// EnvColorScheme names the variable that pins the system preference.
const EnvColorScheme = "THEMEPDF_COLOR_SCHEME"

// DetectSystemPreference reads the preference from the environment on each
// call: THEMEPDF_COLOR_SCHEME=dark|light wins, then the terminal background
// hinted by COLORFGBG. Anything else is light.
func DetectSystemPreference() SystemPreference {
	return PreferenceFunc(func() bool {
		switch strings.ToLower(os.Getenv(EnvColorScheme)) {
		case "dark":
			return true
		case "light":
			return false
		}
		return darkTerminalBackground(os.Getenv("COLORFGBG"))
	})
}

// darkTerminalBackground interprets COLORFGBG ("fg;bg" or "fg;default;bg").
// ANSI background colors 0-6 and 8 are dark.
func darkTerminalBackground(v string) bool {
	if v == "" {
		return false
	}
	parts := strings.Split(v, ";")
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return false
	}
	return (bg >= 0 && bg <= 6) || bg == 8
}
