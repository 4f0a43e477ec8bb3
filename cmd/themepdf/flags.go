package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// maxJobsUnset detects whether --max-jobs was given. -1 (auto) and 0
// (unbounded) are both valid values.
const maxJobsUnset = -999

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds headless browser flags for serve.
type renderFlags struct {
	timeout     string
	networkIdle string
	maxJobs     int
	browserBin  string
	noSandbox   bool
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common     commonFlags
	addr       string
	production bool
	uploadDir  string
	staticDir  string
	assetPath  string
	render     renderFlags
}

// exportFlags holds all flags for the export command.
type exportFlags struct {
	common     commonFlags
	output     string
	outputDir  string
	serverURL  string
	theme      string
	mode       string
	title      string
	user       string
	password   string
	assetPath  string
	dateFormat string
	noSave     bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addRenderFlags adds headless browser flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVarP(&f.timeout, "timeout", "t", "", "render timeout per job (e.g., 60s, 2m)")
	fs.StringVar(&f.networkIdle, "network-idle", "", "quiet network window before printing (e.g., 500ms)")
	fs.IntVar(&f.maxJobs, "max-jobs", maxJobsUnset, "concurrent render jobs (-1 = auto, 0 = unbounded)")
	fs.StringVar(&f.browserBin, "browser-bin", "", "Chrome/Chromium executable")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox (containers, CI)")
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, usage io.Writer) (*serveFlags, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := &serveFlags{}

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default :3000)")
	fs.BoolVar(&f.production, "production", false, "basic auth and static bundle")
	fs.StringVar(&f.uploadDir, "upload-dir", "", "save-upload destination")
	fs.StringVar(&f.staticDir, "static-dir", "", "production bundle directory")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom stylesheet/template directory")
	addRenderFlags(fs, &f.render)
	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printServeUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	if fs.NArg() > 0 {
		return nil, usageErrorf("serve takes no arguments, got %q", fs.Arg(0))
	}
	return f, nil
}

// parseExportFlags parses export command flags and returns positional args.
func parseExportFlags(args []string, usage io.Writer) (*exportFlags, []string, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := &exportFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output PDF file")
	fs.StringVar(&f.outputDir, "output-dir", "", "output directory when --output is not set")
	fs.StringVarP(&f.serverURL, "server", "s", "", "render service URL")
	fs.StringVar(&f.theme, "theme", "", "theme: brutalist, futuristic, luxury")
	fs.StringVarP(&f.mode, "mode", "m", "", "color mode: light, dark, system")
	fs.StringVar(&f.title, "title", "", "document title (default: file name)")
	fs.StringVar(&f.user, "user", "", "basic-auth user for a production server")
	fs.StringVar(&f.password, "password", "", "basic-auth password")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom stylesheet/template directory")
	fs.StringVar(&f.dateFormat, "date-format", "", "badge date: preset (us, iso, european, long) or tokens")
	fs.BoolVar(&f.noSave, "no-save", false, "do not auto-save the input file to the service upload directory")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printExportUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseSimpleFlags parses commands that only take --config and --json.
func parseSimpleFlags(name string, args []string) (configName string, jsonOut bool, err error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&configName, "config", "c", "", "config file name or path")
	fs.BoolVar(&jsonOut, "json", false, "JSON output")
	if err := fs.Parse(args); err != nil {
		return "", false, usageError(err)
	}
	return configName, jsonOut, nil
}
