package themepdf

import "fmt"

// Welcome content shown on startup.
const (
	welcomeTitle = "Themed Documents"
	welcomeBody  = "Welcome to the future of documents.\n\n" +
		"Select a theme to transform this text into a stunning PDF.\n\n" +
		"Type here to edit, or upload a text file."
)

// AppState is the workspace state shared by the preview and the exporter.
type AppState struct {
	Theme      Theme
	ExportMode Mode
	Document   Document
	System     SystemPreference
}

// NewAppState returns the startup state: default theme, system mode,
// welcome document, and the environment's color preference.
func NewAppState() *AppState {
	return &AppState{
		Theme:      DefaultTheme(),
		ExportMode: ModeSystem,
		Document:   Document{Title: welcomeTitle, Body: welcomeBody},
		System:     DetectSystemPreference(),
	}
}

// SetTheme selects a theme by identifier.
func (s *AppState) SetTheme(id string) error {
	t, err := LookupTheme(id)
	if err != nil {
		return err
	}
	s.Theme = t
	return nil
}

// SetMode parses and selects an export mode.
func (s *AppState) SetMode(name string) error {
	m, err := ParseMode(name)
	if err != nil {
		return err
	}
	s.ExportMode = m
	return nil
}

// EffectiveExportMode resolves the export mode against the system preference.
// The result is always light or dark.
func (s *AppState) EffectiveExportMode() Mode {
	return s.ExportMode.Resolve(s.System)
}

// Validate checks the theme and mode are known.
func (s *AppState) Validate() error {
	if _, err := LookupTheme(s.Theme.ID); err != nil {
		return err
	}
	if err := s.ExportMode.Validate(); err != nil {
		return fmt.Errorf("export mode: %w", err)
	}
	return nil
}
