package assets

// Built-in asset names.
const (
	// StyleApp holds layout and utility classes.
	StyleApp = "app"

	// StyleThemes holds the per-theme color variables and mode overrides.
	StyleThemes = "themes"

	// TemplateWorkspace renders the workspace page with live and export papers.
	TemplateWorkspace = "workspace"
)

// WorkspaceStyles lists the stylesheets linked by the workspace page, in
// cascade order.
func WorkspaceStyles() []string {
	return []string{StyleApp, StyleThemes}
}
