package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	themepdf "github.com/alnah/go-themepdf"
	"github.com/alnah/go-themepdf/internal/assets"
	"github.com/alnah/go-themepdf/internal/config"
	"github.com/alnah/go-themepdf/internal/fileutil"
)

// exportParams is the resolved input of one export.
type exportParams struct {
	state     *themepdf.AppState
	input     inputFile
	serverURL string
	origin    string
	user      string
	password  string
	assetPath string
	dateFmt   string
	output    themepdf.ExportOptions
}

// inputFile is the imported file as read from disk.
type inputFile struct {
	name string
	data []byte
}

// runExport themes a text file and writes it as a PDF through the render
// service.
func runExport(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseExportFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	warnUnknownEnvVars(env.Stderr)
	cfg, err := resolveConfig(flags.common.config, loadEnvConfig())
	if err != nil {
		return err
	}
	env.Config = cfg
	if flags.serverURL != "" {
		cfg.Export.ServerURL = flags.serverURL
	}

	logger, err := newLogger(env, cfg, flags.common)
	if err != nil {
		return err
	}

	params, err := buildExportParams(flags, positional, cfg)
	if err != nil {
		return err
	}
	if !flags.common.quiet {
		params.output.OnProgress = progressPrinter(env)
	}

	client := newClient(params)
	if !flags.noSave {
		autoSave(ctx, client, params.input, logger)
	}

	exporter, err := newExporter(client, params, logger)
	if err != nil {
		return err
	}

	res, err := exporter.Export(ctx, params.state, params.output)
	if err != nil {
		return err
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "%s (%s, %d page(s), %d bytes)\n", res.Path, res.Mode, res.Pages, res.Bytes)
	}
	return nil
}

// buildExportParams resolves flags over config and reads the input file.
func buildExportParams(f *exportFlags, positional []string, cfg *config.Config) (*exportParams, error) {
	if len(positional) == 0 {
		return nil, ErrNoInput
	}
	if len(positional) > 1 {
		return nil, usageErrorf("export takes one input file, got %d", len(positional))
	}

	input, doc, err := readDocument(positional[0])
	if err != nil {
		return nil, err
	}
	if f.title != "" {
		doc.Title = f.title
	}

	state := themepdf.NewAppState()
	state.Document = doc

	theme := firstNonEmpty(f.theme, cfg.Export.Theme)
	if theme != "" {
		if err := state.SetTheme(theme); err != nil {
			return nil, err
		}
	}
	mode := firstNonEmpty(f.mode, cfg.Export.Mode)
	if mode != "" {
		if err := state.SetMode(mode); err != nil {
			return nil, err
		}
	}

	serverURL := firstNonEmpty(cfg.Export.ServerURL, config.DefaultServerURL)
	if !fileutil.IsURL(serverURL) {
		return nil, fmt.Errorf("%w: server URL must start with http:// or https://, got %q", config.ErrInvalidValue, serverURL)
	}

	return &exportParams{
		state:     state,
		input:     input,
		serverURL: serverURL,
		origin:    firstNonEmpty(cfg.Preview.Origin, serverURL),
		user:      f.user,
		password:  f.password,
		assetPath: firstNonEmpty(f.assetPath, cfg.Assets.BasePath),
		dateFmt:   firstNonEmpty(f.dateFormat, cfg.Preview.DateFormat),
		output: themepdf.ExportOptions{
			OutputPath: f.output,
			OutputDir:  firstNonEmpty(f.outputDir, cfg.Export.OutputDir),
		},
	}, nil
}

// readDocument imports a text, HTML or Word file.
func readDocument(path string) (inputFile, themepdf.Document, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- input path is user-provided
	if err != nil {
		return inputFile{}, themepdf.Document{}, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	doc, err := themepdf.DocumentFromFile(path, data)
	if err != nil {
		return inputFile{}, themepdf.Document{}, err
	}
	return inputFile{name: filepath.Base(path), data: data}, doc, nil
}

// autoSave copies the input file to the service's upload directory.
// Failures are logged and never stop the export.
func autoSave(ctx context.Context, client *themepdf.Client, in inputFile, logger *log.Logger) {
	res, err := client.SaveUpload(ctx, in.name, bytes.NewReader(in.data))
	if err != nil {
		logger.Warn("auto-save failed", "file", in.name, "err", err)
		return
	}
	logger.Debug("auto-saved", "file", in.name, "path", res.Path)
}

// newClient builds the render service client, with basic auth when a user is set.
func newClient(p *exportParams) *themepdf.Client {
	var opts []themepdf.ClientOption
	if p.user != "" {
		opts = append(opts, themepdf.WithBasicAuth(p.user, p.password))
	}
	return themepdf.NewClient(p.serverURL, opts...)
}

// newExporter wires the client, workspace renderer and snapshot builder
// over the same asset loader so the captured styles match the workspace.
func newExporter(client *themepdf.Client, p *exportParams, logger *log.Logger) (*themepdf.Exporter, error) {
	loader, err := assets.NewAssetResolver(p.assetPath)
	if err != nil {
		return nil, err
	}

	previewer, err := themepdf.NewPreviewer(
		themepdf.WithAssetLoader(loader),
		themepdf.WithDateFormat(p.dateFmt),
	)
	if err != nil {
		return nil, err
	}
	builder, err := themepdf.NewSnapshotBuilder(p.origin,
		themepdf.WithStyleSource(themepdf.NewAssetStyleSource(loader)),
		themepdf.WithBuilderLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return themepdf.NewExporter(client,
		themepdf.WithPreviewer(previewer),
		themepdf.WithSnapshotBuilder(builder),
		themepdf.WithExportLogger(logger),
	)
}

// progressPrinter reports export checkpoints on stderr.
func progressPrinter(env *Environment) themepdf.ProgressFunc {
	return func(percent int, message string) {
		fmt.Fprintf(env.Stderr, "[%3d%%] %s\n", percent, message)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
