package themepdf

import "errors"

// Sentinel errors for library operations.
var (
	ErrMissingHTML    = errors.New("missing HTML content")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserLaunch  = errors.New("failed to launch browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrRenderTimeout  = errors.New("render timed out")
	ErrLimiterClosed  = errors.New("render limiter closed")
	ErrInvalidPDF     = errors.New("invalid PDF")
	ErrInvalidTimeout = errors.New("invalid timeout")

	// Snapshot errors.
	ErrRootNotFound      = errors.New("export root not found")
	ErrDuplicateRoot     = errors.New("export root id is not unique")
	ErrEmptyRootID       = errors.New("export root id cannot be empty")
	ErrInvalidOrigin     = errors.New("invalid page origin")
	ErrStylesheetMissing = errors.New("stylesheet not found")

	// State validation errors.
	ErrUnknownTheme      = errors.New("unknown theme")
	ErrInvalidMode       = errors.New("invalid color mode")
	ErrUnsupportedImport = errors.New("unsupported import file type")
	ErrInvalidDocx       = errors.New("invalid .docx file")

	// Export client errors.
	ErrServerUnreachable = errors.New("PDF server unreachable")
	ErrServerResponse    = errors.New("PDF server returned an error")
	ErrWriteOutput       = errors.New("failed to write output")
)
