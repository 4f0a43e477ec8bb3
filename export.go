package themepdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-themepdf/internal/assets"
	"github.com/alnah/go-themepdf/internal/fileutil"
	"github.com/alnah/go-themepdf/internal/logging"
)

// Exporter checkpoints after the snapshot phase, which reports into 0..50.
const (
	snapshotPhaseEnd = 50
	progressSending  = 60
	progressDecoding = 80
	progressWriting  = 90

	msgSending  = "Sending to PDF engine..."
	msgDecoding = "Processing binary stream..."
	msgWriting  = "Writing file..."
	msgDone     = "Done!"
)

// defaultOutputBase names the PDF when the document has no usable title.
const defaultOutputBase = "document"

// ExportOptions controls a single export.
type ExportOptions struct {
	// OutputPath is the destination file. Empty derives a name from the
	// document title inside OutputDir.
	OutputPath string
	OutputDir  string
	OnProgress ProgressFunc
}

// ExportResult describes a written PDF.
type ExportResult struct {
	Path  string
	Mode  Mode
	Bytes int
	Pages int
}

// Exporter runs the full export: resolve mode, render the workspace, build a
// snapshot, send it to the render service and write the PDF.
type Exporter struct {
	client    *Client
	previewer *Previewer
	builder   *SnapshotBuilder
	logger    *log.Logger
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithPreviewer sets the workspace renderer.
func WithPreviewer(p *Previewer) ExporterOption {
	return func(e *Exporter) {
		if p != nil {
			e.previewer = p
		}
	}
}

// WithSnapshotBuilder sets the snapshot builder.
func WithSnapshotBuilder(b *SnapshotBuilder) ExporterOption {
	return func(e *Exporter) {
		if b != nil {
			e.builder = b
		}
	}
}

// WithExportLogger sets the exporter logger.
func WithExportLogger(l *log.Logger) ExporterOption {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExporter creates an Exporter sending to client. Unless overridden, the
// workspace and its stylesheets come from the embedded assets and the page
// origin is the client's server.
func NewExporter(client *Client, opts ...ExporterOption) (*Exporter, error) {
	e := &Exporter{
		client: client,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.previewer == nil {
		p, err := NewPreviewer()
		if err != nil {
			return nil, err
		}
		e.previewer = p
	}
	if e.builder == nil {
		b, err := NewSnapshotBuilder(client.BaseURL(),
			WithStyleSource(NewAssetStyleSource(assets.NewEmbeddedLoader())),
			WithBuilderLogger(e.logger),
		)
		if err != nil {
			return nil, err
		}
		e.builder = b
	}
	return e, nil
}

// Export writes state's document as a themed PDF. The mode is resolved once,
// up front, and both workspace papers render with it.
func (e *Exporter) Export(ctx context.Context, state *AppState, opts ExportOptions) (ExportResult, error) {
	progress := newProgressTracker(opts.OnProgress)

	res, err := e.export(ctx, state, opts, progress)
	if err != nil {
		progress.fail(err)
		e.logger.Error("export failed", "err", err)
		return ExportResult{}, err
	}
	progress.complete(msgDone)
	return res, nil
}

func (e *Exporter) export(ctx context.Context, state *AppState, opts ExportOptions, progress *progressTracker) (ExportResult, error) {
	timer := logging.Start(e.logger)

	resolved := *state
	resolved.ExportMode = state.EffectiveExportMode()

	var page bytes.Buffer
	if err := e.previewer.RenderWorkspace(&page, &resolved, PreviewOptions{}); err != nil {
		return ExportResult{}, err
	}

	snap, err := e.builder.Build(ctx, &page, ExportRootID, progress.span(0, snapshotPhaseEnd))
	if err != nil {
		return ExportResult{}, err
	}

	progress.step(progressSending, msgSending)
	pdf, err := e.client.GeneratePDF(ctx, snap)
	if err != nil {
		return ExportResult{}, err
	}

	progress.step(progressDecoding, msgDecoding)
	pages := 0
	if info, err := InspectPDF(pdf); err != nil {
		e.logger.Warn("could not inspect PDF", "err", err)
	} else {
		pages = info.Pages
	}

	progress.step(progressWriting, msgWriting)
	path := opts.OutputPath
	if path == "" {
		path = filepath.Join(opts.OutputDir, fileutil.OutputName(state.Document.Title, defaultOutputBase))
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return ExportResult{}, fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}

	timer.Done("exported", "path", path, "mode", resolved.ExportMode, "theme", state.Theme.ID, "pages", pages)
	return ExportResult{
		Path:  path,
		Mode:  resolved.ExportMode,
		Bytes: len(pdf),
		Pages: pages,
	}, nil
}
