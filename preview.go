package themepdf

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/alnah/go-themepdf/internal/assets"
	"github.com/alnah/go-themepdf/internal/dateutil"
)

// Workspace element ids.
const (
	// ExportContainerID is the off-screen container sized to the render viewport.
	ExportContainerID = "export-container"

	// ExportRootID is the paper captured by the Snapshot Builder.
	ExportRootID = "export-preview"

	// LivePreviewID is the paper shown to the user.
	LivePreviewID = "preview-content"
)

// PreviewOptions tunes a single workspace render.
type PreviewOptions struct {
	// Fonts links the web font stylesheet. It is cross-origin, so snapshots
	// skip it and the render shell supplies the fonts instead.
	Fonts bool
}

// Previewer renders the workspace page holding the live paper and the
// export paper.
type Previewer struct {
	loader     assets.AssetLoader
	dateFormat string
	now        func() time.Time
	tmpl       *template.Template
}

// PreviewerOption configures a Previewer.
type PreviewerOption func(*Previewer)

// WithAssetLoader sets where the workspace template is loaded from.
func WithAssetLoader(l assets.AssetLoader) PreviewerOption {
	return func(p *Previewer) {
		if l != nil {
			p.loader = l
		}
	}
}

// WithDateFormat sets the badge date format (preset name or token format).
func WithDateFormat(format string) PreviewerOption {
	return func(p *Previewer) {
		if format != "" {
			p.dateFormat = format
		}
	}
}

// withClock fixes the badge date (tests).
func withClock(now func() time.Time) PreviewerOption {
	return func(p *Previewer) {
		p.now = now
	}
}

// NewPreviewer loads and parses the workspace template.
func NewPreviewer(opts ...PreviewerOption) (*Previewer, error) {
	p := &Previewer{
		loader:     assets.NewEmbeddedLoader(),
		dateFormat: dateutil.DefaultPreset,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := dateutil.Validate(p.dateFormat); err != nil {
		return nil, err
	}

	src, err := p.loader.LoadTemplate(assets.TemplateWorkspace)
	if err != nil {
		return nil, fmt.Errorf("loading workspace template: %w", err)
	}
	tmpl, err := template.New(assets.TemplateWorkspace).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing workspace template: %w", err)
	}
	p.tmpl = tmpl
	return p, nil
}

type workspaceData struct {
	Title       string
	FontLinks   []string
	Stylesheets []string
	Live        paperData
	ContainerID string
	WidthPx     int
	MinHeightPx int
	Export      paperData
}

type paperData struct {
	ID            string
	Theme         Theme
	OverrideClass string
	Date          string
	Title         string
	Paragraphs    []string
}

// RenderWorkspace writes the workspace page for state. The live paper follows
// the selected export mode, so system mode tracks the viewer's preference.
// The export paper always carries the resolved mode class.
func (p *Previewer) RenderWorkspace(w io.Writer, state *AppState, opts PreviewOptions) error {
	if err := state.Validate(); err != nil {
		return err
	}

	date, err := dateutil.Format(p.dateFormat, p.now())
	if err != nil {
		return err
	}

	paper := paperData{
		Theme:      state.Theme,
		Date:       date,
		Title:      state.Document.DisplayTitle(),
		Paragraphs: state.Document.Paragraphs(),
	}
	live, export := paper, paper
	live.ID = LivePreviewID
	live.OverrideClass = state.ExportMode.OverrideClass()
	export.ID = ExportRootID
	export.OverrideClass = state.EffectiveExportMode().OverrideClass()

	data := workspaceData{
		Title:       paper.Title,
		Stylesheets: workspaceStylesheets(),
		Live:        live,
		ContainerID: ExportContainerID,
		WidthPx:     PreviewWidthPx,
		MinHeightPx: PreviewMinHeightPx,
		Export:      export,
	}
	if opts.Fonts {
		data.FontLinks = []string{FontStylesheetURL}
	}

	if err := p.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering workspace: %w", err)
	}
	return nil
}

// workspaceStylesheets returns the same-origin stylesheet paths in cascade order.
func workspaceStylesheets() []string {
	names := assets.WorkspaceStyles()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = StylesPath + name + ".css"
	}
	return paths
}
