package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	themepdf "github.com/alnah/go-themepdf"
	"github.com/alnah/go-themepdf/internal/assets"
	"github.com/alnah/go-themepdf/internal/config"
)

// serverProbeTimeout bounds the /healthz check.
const serverProbeTimeout = 3 * time.Second

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"`
	Chrome   chromeInfo `json:"chrome"`
	Assets   assetsInfo `json:"assets"`
	Server   serverInfo `json:"server"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// assetsInfo reports whether the workspace can be rendered from the
// configured asset path.
type assetsInfo struct {
	BasePath  string `json:"base_path,omitempty"`
	Workspace bool   `json:"workspace"`
	Styles    int    `json:"styles"`
}

type serverInfo struct {
	URL       string `json:"url,omitempty"`
	Checked   bool   `json:"checked"`
	Reachable bool   `json:"reachable"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     bool   `json:"no_sandbox"`
	BrowserBin    string `json:"browser_bin,omitempty"`
}

type systemInfo struct {
	TempWritable   bool   `json:"temp_writable"`
	UploadDir      string `json:"upload_dir"`
	UploadWritable bool   `json:"upload_writable"`
}

func (r *doctorResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *doctorResult) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// doctorOptions are the doctor inputs after flags and config are merged.
type doctorOptions struct {
	serverURL  string
	uploadDir  string
	assetPath  string
	browserBin string
	noSandbox  bool
}

// runDoctorCmd executes the doctor command and returns an exit code:
// 0 when ready (warnings included), 1 when any check failed.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOutput := fs.Bool("json", false, "JSON output")
	configName := fs.StringP("config", "c", "", "config file name or path")
	serverURL := fs.String("server", "", "render service URL to probe")
	uploadDir := fs.String("upload-dir", "", "upload directory to check")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	cfg, err := resolveConfig(*configName, loadEnvConfig())
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, ""))
		return exitCodeFor(err)
	}

	opts := doctorOptions{
		serverURL:  *serverURL,
		uploadDir:  firstNonEmpty(*uploadDir, cfg.Server.UploadDir, config.DefaultUploadDir),
		assetPath:  cfg.Assets.BasePath,
		browserBin: firstNonEmpty(cfg.Render.BrowserBin, os.Getenv("ROD_BROWSER_BIN")),
		noSandbox:  cfg.Render.NoSandbox,
	}
	result := runDoctor(ctx, opts)

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, opts doctorOptions) *doctorResult {
	result := &doctorResult{
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  opts.noSandbox,
			BrowserBin: opts.browserBin,
		},
	}

	checkChrome(result)
	checkEnvironment(result)
	checkAssets(result, opts.assetPath)
	checkSystem(result, opts.uploadDir)
	if opts.serverURL != "" {
		checkServer(ctx, result, opts.serverURL)
	}

	switch {
	case len(result.Errors) > 0:
		result.Status = statusErrors
	case len(result.Warnings) > 0:
		result.Status = statusWarnings
	default:
		result.Status = statusReady
	}
	return result
}

// checkChrome locates the browser the render engine would launch.
func checkChrome(result *doctorResult) {
	path := result.Env.BrowserBin
	if path == "" {
		found := false
		if path, found = launcher.LookPath(); !found {
			result.fail("Chrome/Chromium not found. Install Chrome or set render.browserBin")
			return
		}
	}
	if _, err := os.Stat(path); err != nil {
		result.fail("Chrome not found at %s", path)
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = path
	result.Chrome.Sandbox = !result.Env.NoSandbox && os.Getenv("CI") != "true"

	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- configured browser path
	if err != nil {
		result.warn("Could not get Chrome version: %v", err)
		return
	}
	result.Chrome.Version = strings.TrimSpace(string(out))
}

// checkEnvironment flags sandboxed Chrome inside containers and CI, where
// it usually fails to start.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = detectContainer()
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Chrome.Sandbox {
		result.warn("Container/CI detected with the Chrome sandbox enabled. Set THEMEPDF_NO_SANDBOX=1")
	}
}

// detectContainer returns whether a container signal is present and which one.
func detectContainer() (bool, string) {
	signals := []struct {
		hint string
		ok   func() bool
	}{
		{"THEMEPDF_CONTAINER=1", func() bool { return os.Getenv("THEMEPDF_CONTAINER") == "1" }},
		{"/.dockerenv", func() bool { _, err := os.Stat("/.dockerenv"); return err == nil }},
		{"container=" + os.Getenv("container"), func() bool { return os.Getenv("container") != "" }},
		{"KUBERNETES_SERVICE_HOST", func() bool { return os.Getenv("KUBERNETES_SERVICE_HOST") != "" }},
	}
	for _, s := range signals {
		if s.ok() {
			return true, s.hint
		}
	}
	return false, ""
}

// checkAssets loads the workspace template and stylesheets the render
// service serves, honoring a custom asset path.
func checkAssets(result *doctorResult, basePath string) {
	result.Assets.BasePath = basePath

	loader, err := assets.NewAssetResolver(basePath)
	if err != nil {
		result.fail("Asset path unusable: %v", err)
		return
	}
	if _, err := themepdf.NewPreviewer(themepdf.WithAssetLoader(loader)); err != nil {
		result.fail("Workspace template: %v", err)
	} else {
		result.Assets.Workspace = true
	}
	for _, name := range assets.WorkspaceStyles() {
		if _, err := loader.LoadStyle(name); err != nil {
			result.fail("Stylesheet %s: %v", name, err)
			continue
		}
		result.Assets.Styles++
	}
}

// checkSystem verifies the temp and upload directories are writable.
func checkSystem(result *doctorResult, uploadDir string) {
	if err := probeWrite(os.TempDir()); err != nil {
		result.fail("Temp directory not writable: %s", os.TempDir())
	} else {
		result.System.TempWritable = true
	}

	result.System.UploadDir = uploadDir
	if err := probeWrite(uploadDir); err != nil {
		result.warn("Upload directory not writable: %s", uploadDir)
	} else {
		result.System.UploadWritable = true
	}
}

func probeWrite(dir string) error {
	f, err := os.CreateTemp(dir, ".themepdf-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(filepath.Clean(name))
}

// checkServer probes the render service health endpoint. A 401 means a
// production server behind basic auth, which is reachable.
func checkServer(ctx context.Context, result *doctorResult, serverURL string) {
	result.Server.URL = strings.TrimRight(serverURL, "/")
	result.Server.Checked = true

	ctx, cancel := context.WithTimeout(ctx, serverProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, result.Server.URL+"/healthz", nil)
	if err != nil {
		result.fail("Invalid server URL: %v", err)
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		result.fail("%v at %s", themepdf.ErrServerUnreachable, result.Server.URL)
		return
	}
	_ = resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		result.Server.Reachable = true
	case http.StatusUnauthorized:
		result.Server.Reachable = true
		result.warn("Server requires basic auth (production mode)")
	default:
		result.fail("Server health check returned HTTP %d", resp.StatusCode)
	}
}

// report writes one doctor section at a time.
type report struct {
	w io.Writer
}

func (r report) section(title string) { fmt.Fprintf(r.w, "\n%s\n", title) }

func (r report) line(level, format string, args ...any) {
	fmt.Fprintf(r.w, "  [%s] %s\n", level, fmt.Sprintf(format, args...))
}

func (r report) check(ok bool, okMsg, failLevel, failMsg string) {
	if ok {
		r.line("OK", "%s", okMsg)
		return
	}
	r.line(failLevel, "%s", failMsg)
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, res *doctorResult) {
	r := report{w: w}
	fmt.Fprintln(w, "themepdf doctor")

	r.section("Chrome/Chromium")
	if res.Chrome.Found {
		r.line("OK", "Found at %s", res.Chrome.Path)
		if res.Chrome.Version != "" {
			r.line("OK", "Version: %s", res.Chrome.Version)
		}
		r.check(res.Chrome.Sandbox, "Sandbox: enabled", "OK", "Sandbox: disabled")
	} else {
		r.line("ERROR", "Not found")
	}

	r.section("Assets")
	source := "embedded"
	if res.Assets.BasePath != "" {
		source = res.Assets.BasePath + " (embedded fallback)"
	}
	r.line("OK", "Source: %s", source)
	r.check(res.Assets.Workspace, "Workspace template: loaded", "ERROR", "Workspace template: unusable")
	r.line("OK", "Stylesheets: %d/%d", res.Assets.Styles, len(assets.WorkspaceStyles()))

	if res.Server.Checked {
		r.section("Render service")
		r.check(res.Server.Reachable,
			"Reachable at "+res.Server.URL, "ERROR", "Not reachable at "+res.Server.URL)
	}

	r.section("Environment")
	r.line("OK", "Platform: %s/%s", res.Env.OS, res.Env.Arch)
	if res.Env.Container {
		r.line("OK", "Container: detected (%s)", res.Env.ContainerHint)
	}
	if res.Env.CI {
		r.line("OK", "CI: detected")
	}

	r.section("System")
	r.check(res.System.TempWritable, "Temp directory: writable", "ERROR", "Temp directory: not writable")
	r.check(res.System.UploadWritable,
		"Upload directory: "+res.System.UploadDir+" writable",
		"WARN", "Upload directory: "+res.System.UploadDir+" not writable")

	if len(res.Warnings) > 0 {
		r.section("Warnings:")
		for _, msg := range res.Warnings {
			r.line("WARN", "%s", msg)
		}
	}
	if len(res.Errors) > 0 {
		r.section("Errors:")
		for _, msg := range res.Errors {
			r.line("ERROR", "%s", msg)
		}
	}

	fmt.Fprintln(w)
	switch res.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to render")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
