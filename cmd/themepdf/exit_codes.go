package main

import (
	"errors"
	"os"

	themepdf "github.com/alnah/go-themepdf"
	"github.com/alnah/go-themepdf/internal/assets"
	"github.com/alnah/go-themepdf/internal/config"
	"github.com/alnah/go-themepdf/internal/dateutil"
	"github.com/alnah/go-themepdf/internal/hints"
	"github.com/alnah/go-themepdf/internal/server"
)

// Exit codes for the themepdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Command completed
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
	ExitServer  = 5 // Render service unreachable or failing
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Server errors (exit 5)
	if errors.Is(err, themepdf.ErrServerUnreachable) ||
		errors.Is(err, themepdf.ErrServerResponse) {
		return ExitServer
	}

	// Browser errors (exit 4)
	if errors.Is(err, themepdf.ErrBrowserLaunch) ||
		errors.Is(err, themepdf.ErrPageCreate) ||
		errors.Is(err, themepdf.ErrPageLoad) ||
		errors.Is(err, themepdf.ErrPDFGeneration) ||
		errors.Is(err, themepdf.ErrRenderTimeout) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, themepdf.ErrWriteOutput) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, themepdf.ErrUnknownTheme) ||
		errors.Is(err, themepdf.ErrInvalidMode) ||
		errors.Is(err, themepdf.ErrUnsupportedImport) ||
		errors.Is(err, themepdf.ErrInvalidDocx) ||
		errors.Is(err, themepdf.ErrInvalidTimeout) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, server.ErrNoBasicUsers) ||
		errors.Is(err, ErrUsage) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable suffix for err, or "".
func hintFor(err error, serverURL string) string {
	switch {
	case errors.Is(err, themepdf.ErrServerUnreachable):
		return hints.ForServerUnreachable(serverURL)
	case errors.Is(err, themepdf.ErrRenderTimeout):
		return hints.ForRenderTimeout()
	case errors.Is(err, themepdf.ErrBrowserLaunch):
		return hints.ForBrowserLaunch()
	case errors.Is(err, themepdf.ErrUnknownTheme):
		return hints.ForUnknownTheme(themepdf.ThemeIDs())
	case errors.Is(err, themepdf.ErrUnsupportedImport):
		return hints.ForImport(themepdf.SupportedImportExtensions())
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(nil)
	case errors.Is(err, themepdf.ErrWriteOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}
