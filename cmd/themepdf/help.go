package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: themepdf <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve          Run the PDF render service")
	fmt.Fprintln(w, "  export         Theme a text file and export it as PDF")
	fmt.Fprintln(w, "  themes         List available themes")
	fmt.Fprintln(w, "  config         Print the effective configuration")
	fmt.Fprintln(w, "  hash-password  Hash a login password read from stdin")
	fmt.Fprintln(w, "  doctor         Check Chrome, environment and render service")
	fmt.Fprintln(w, "  version        Show version information")
	fmt.Fprintln(w, "  help           Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'themepdf help <command>' for details on a specific command.")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: themepdf serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run the render service: POST /generate-pdf, POST /save-upload,")
	fmt.Fprintln(w, "GET /api/check-auth, POST /api/login.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <addr>         Listen address (default :3000)")
	fmt.Fprintln(w, "      --production          Basic auth and static bundle with SPA fallback")
	fmt.Fprintln(w, "      --upload-dir <dir>    save-upload destination (default .)")
	fmt.Fprintln(w, "      --static-dir <dir>    Production bundle (default dist)")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom stylesheets and templates")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -t, --timeout <d>         Render timeout per job (default 60s)")
	fmt.Fprintln(w, "      --network-idle <d>    Quiet window before printing (default 500ms, 0 skips)")
	fmt.Fprintln(w, "      --max-jobs <n>        Concurrent jobs: -1 auto, 0 unbounded")
	fmt.Fprintln(w, "      --browser-bin <path>  Chrome/Chromium executable")
	fmt.Fprintln(w, "      --no-sandbox          Disable the Chrome sandbox")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printExportUsage prints usage for the export command.
func printExportUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: themepdf export <file> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Theme a text file (.txt .md .json .js .ts .html .htm .docx) and export it as")
	fmt.Fprintln(w, "PDF through a running render service.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output PDF file (default: <title>.pdf)")
	fmt.Fprintln(w, "      --output-dir <dir>    Directory for the derived file name")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Appearance:")
	fmt.Fprintln(w, "      --theme <id>          brutalist, futuristic, luxury")
	fmt.Fprintln(w, "  -m, --mode <mode>         light, dark, system (resolved once, at export)")
	fmt.Fprintln(w, "      --title <s>           Document title (default: file name)")
	fmt.Fprintln(w, "      --date-format <s>     Badge date: us, iso, european, long or tokens")
	fmt.Fprintln(w, "                            Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom stylesheets and templates")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Service:")
	fmt.Fprintln(w, "  -s, --server <url>        Render service URL (default http://localhost:3000)")
	fmt.Fprintln(w, "      --user <name>         Basic-auth user (production server)")
	fmt.Fprintln(w, "      --password <s>        Basic-auth password")
	fmt.Fprintln(w, "      --no-save             Skip the auto-save of the input file (save-upload)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	w := env.Stdout
	switch args[0] {
	case "serve":
		printServeUsage(w)
	case "export":
		printExportUsage(w)
	case "themes":
		fmt.Fprintln(w, "Usage: themepdf themes [--json]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "List available themes.")
	case "config":
		fmt.Fprintln(w, "Usage: themepdf config [--config <name>]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Print the effective configuration (file, then THEMEPDF_* overrides) as YAML.")
	case "hash-password":
		fmt.Fprintln(w, "Usage: echo 'secret' | themepdf hash-password")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Print a bcrypt hash for auth.passwordHash.")
	case "doctor":
		fmt.Fprintln(w, "Usage: themepdf doctor [--json] [--config <name>] [--server <url>] [--upload-dir <dir>]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Check Chrome, assets, the environment and, with --server, the render service.")
	case "version":
		fmt.Fprintln(w, "Usage: themepdf version")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Show version information.")
	case "help":
		fmt.Fprintln(w, "Usage: themepdf help [command]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
