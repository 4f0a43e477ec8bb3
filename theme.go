package themepdf

import (
	"fmt"
	"strings"
)

// ThemeStyles holds the class lists applied to each region of the paper.
type ThemeStyles struct {
	Container string `json:"container"`
	Heading   string `json:"heading"`
	Content   string `json:"content"`
	Badge     string `json:"badge"`
}

// Theme is a named visual style. ClassName carries the root classes that
// scope the theme's color variables; Styles carries per-region classes.
type Theme struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	ClassName string      `json:"className"`
	Styles    ThemeStyles `json:"styles"`
}

// Theme identifiers.
const (
	ThemeBrutalist  = "brutalist"
	ThemeFuturistic = "futuristic"
	ThemeLuxury     = "luxury"
)

var themeCatalog = []Theme{
	{
		ID:        ThemeBrutalist,
		Name:      "Brutalist",
		ClassName: "theme-brutalist theme-brutalist-root",
		Styles: ThemeStyles{
			Container: "semantic-bg semantic-text-primary semantic-border border-4 p-8 font-mono shadow-hard",
			Heading:   "font-display text-6xl font-black uppercase mb-6 tracking-tighter semantic-border border-b-4 pb-4",
			Content:   "semantic-text-primary text-lg leading-relaxed space-y-4 font-mono",
			Badge:     "semantic-badge px-3 py-1 text-sm font-bold uppercase inline-block mb-4",
		},
	},
	{
		ID:        ThemeFuturistic,
		Name:      "Futuristic",
		ClassName: "theme-futuristic theme-futuristic-root",
		Styles: ThemeStyles{
			Container: "semantic-bg semantic-text-primary p-10 font-sans bg-radial-night shadow-glow",
			Heading:   "text-5xl font-thin tracking-wide-2 mb-8 text-gradient-cyan uppercase",
			Content:   "semantic-text-secondary text-base leading-loose tracking-wide font-light",
			Badge:     "semantic-badge semantic-border border px-4 py-1 rounded-full text-xs tracking-wide-3 uppercase inline-block mb-6 shadow-glow-sm",
		},
	},
	{
		ID:        ThemeLuxury,
		Name:      "Luxury",
		ClassName: "theme-luxury theme-luxury-root",
		Styles: ThemeStyles{
			Container: "semantic-bg semantic-text-primary p-12 font-serif semantic-border border-double border-8",
			Heading:   "text-5xl font-serif italic mb-8 text-center semantic-border border-b pb-6",
			Content:   "semantic-text-secondary text-lg leading-loose text-justify font-serif",
			Badge:     "semantic-badge text-center text-xs tracking-wide-3 uppercase mb-4 font-bold block",
		},
	},
}

// DefaultThemeID is the theme selected on startup.
const DefaultThemeID = ThemeFuturistic

// Themes returns the built-in theme catalog in display order.
func Themes() []Theme {
	out := make([]Theme, len(themeCatalog))
	copy(out, themeCatalog)
	return out
}

// ThemeIDs returns the identifiers of the built-in themes.
func ThemeIDs() []string {
	ids := make([]string, len(themeCatalog))
	for i, t := range themeCatalog {
		ids[i] = t.ID
	}
	return ids
}

// LookupTheme finds a theme by identifier, case-insensitively.
func LookupTheme(id string) (Theme, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	for _, t := range themeCatalog {
		if t.ID == key {
			return t, nil
		}
	}
	return Theme{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownTheme, id, strings.Join(ThemeIDs(), ", "))
}

// DefaultTheme returns the startup theme.
func DefaultTheme() Theme {
	t, _ := LookupTheme(DefaultThemeID)
	return t
}
