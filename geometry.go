package themepdf

// A4 at 96 CSS pixels per inch. The preview container and the render
// viewport share PreviewWidthPx so the exported layout wraps like the preview.
const (
	// PreviewWidthPx is the CSS width of the export container in the workspace.
	PreviewWidthPx = 794

	// PreviewMinHeightPx is one A4 page height in CSS pixels.
	PreviewMinHeightPx = 1123

	// DeviceScaleFactor doubles raster density for crisp text.
	DeviceScaleFactor = 2

	a4WidthInches  = 8.27
	a4HeightInches = 11.7
)

// PageGeometry describes the render viewport and the printed paper.
// Paper dimensions are in inches, viewport in CSS pixels.
type PageGeometry struct {
	ViewportWidth     int
	ViewportHeight    int
	DeviceScaleFactor float64
	PaperWidth        float64
	PaperHeight       float64
	Margin            float64
}

// DefaultPageGeometry returns A4 portrait with zero margins.
func DefaultPageGeometry() PageGeometry {
	return PageGeometry{
		ViewportWidth:     PreviewWidthPx,
		ViewportHeight:    PreviewMinHeightPx,
		DeviceScaleFactor: DeviceScaleFactor,
		PaperWidth:        a4WidthInches,
		PaperHeight:       a4HeightInches,
		Margin:            0,
	}
}

// PaperPoints returns the paper size in PDF points (1/72 inch).
func (g PageGeometry) PaperPoints() (width, height float64) {
	return g.PaperWidth * 72, g.PaperHeight * 72
}
