package themepdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/alnah/go-themepdf/internal/logging"
)

// Snapshot is a self-contained capture of a themed subtree: the outer HTML
// of the root node and every same-origin CSS rule of the page.
type Snapshot struct {
	HTML string `json:"html"`
	CSS  string `json:"css,omitempty"`
}

// Builder checkpoints.
const (
	progressCollecting  = 10
	progressSerializing = 30

	msgCollecting  = "Collecting page styles..."
	msgSerializing = "Serializing document..."
	msgReady       = "Snapshot ready"
)

// SnapshotBuilder captures Snapshots from rendered workspace pages.
type SnapshotBuilder struct {
	origin *url.URL
	styles StyleSource
	logger *log.Logger
}

// BuilderOption configures a SnapshotBuilder.
type BuilderOption func(*SnapshotBuilder)

// WithStyleSource sets where same-origin <link> stylesheets are read from.
func WithStyleSource(s StyleSource) BuilderOption {
	return func(b *SnapshotBuilder) {
		b.styles = s
	}
}

// WithBuilderLogger sets the logger for skipped-stylesheet warnings.
func WithBuilderLogger(l *log.Logger) BuilderOption {
	return func(b *SnapshotBuilder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewSnapshotBuilder creates a builder for pages served from origin
// (e.g. "http://localhost:3000"). Relative hrefs resolve against it.
func NewSnapshotBuilder(origin string, opts ...BuilderOption) (*SnapshotBuilder, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrigin, origin)
	}
	b := &SnapshotBuilder{
		origin: u,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Origin returns the page origin the builder treats as same-origin.
func (b *SnapshotBuilder) Origin() string {
	return b.origin.Scheme + "://" + b.origin.Host
}

// Build captures the element whose id is rootID from page. The page must
// already be rendered with a resolved mode. onProgress may be nil.
//
// A missing root fails before any checkpoint is reported. A page with no
// stylesheets yields an empty CSS string.
func (b *SnapshotBuilder) Build(ctx context.Context, page io.Reader, rootID string, onProgress ProgressFunc) (Snapshot, error) {
	progress := newProgressTracker(onProgress)

	snap, err := b.build(ctx, page, rootID, progress)
	if err != nil {
		progress.fail(err)
		return Snapshot{}, err
	}
	progress.complete(msgReady)
	return snap, nil
}

func (b *SnapshotBuilder) build(ctx context.Context, page io.Reader, rootID string, progress *progressTracker) (Snapshot, error) {
	if rootID == "" {
		return Snapshot{}, ErrEmptyRootID
	}

	doc, err := html.Parse(page)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parsing page: %w", err)
	}

	root, err := findRoot(doc, rootID)
	if err != nil {
		return Snapshot{}, err
	}

	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	progress.step(progressCollecting, msgCollecting)

	collector := &styleCollector{origin: b.origin, source: b.styles, logger: b.logger}
	css := collector.collect(doc)

	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	progress.step(progressSerializing, msgSerializing)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return Snapshot{}, fmt.Errorf("serializing export root: %w", err)
	}

	b.logger.Debug("snapshot captured", "root", rootID, "html_bytes", buf.Len(), "css_bytes", len(css))
	return Snapshot{HTML: buf.String(), CSS: css}, nil
}

// findRoot returns the single element with the given id.
func findRoot(doc *html.Node, id string) (*html.Node, error) {
	var matches []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			matches = append(matches, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: #%s", ErrRootNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: #%s matches %d elements", ErrDuplicateRoot, id, len(matches))
	}
}
