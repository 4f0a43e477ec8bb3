// Package themepdf turns themed text documents into PDFs that look exactly
// like their on-screen preview.
//
// # Quick Start
//
// Render a snapshot directly with a local headless Chrome:
//
//	r := themepdf.NewRenderer(themepdf.WithRenderTimeout(time.Minute))
//	pdf, err := r.Render(ctx, themepdf.Snapshot{
//	    HTML: `<div class="paper">Hello</div>`,
//	    CSS:  ".paper { padding: 40px; }",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("output.pdf", pdf, 0644)
//
// Or export a whole workspace through a running render service:
//
//	state := themepdf.NewAppState()
//	_ = state.SetTheme("brutalist")
//	_ = state.SetMode("dark")
//
//	exp, err := themepdf.NewExporter(themepdf.NewClient("http://localhost:3000"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := exp.Export(ctx, state, themepdf.ExportOptions{
//	    OnProgress: func(p int, msg string) { fmt.Println(p, msg) },
//	})
//
// # Pipeline
//
//  1. The Previewer renders the workspace page. Its hidden export paper
//     (#export-preview) is sized to PreviewWidthPx and carries the resolved
//     mode class (force-light-mode or force-dark-mode).
//  2. The SnapshotBuilder serializes that paper and collects every
//     same-origin CSS rule of the page, in source order.
//  3. The Renderer wraps the snapshot in a minimal document, loads it into a
//     fresh browser with a 794px viewport at 2x scale, waits for the network
//     to settle and prints A4 with backgrounds and zero margins.
//
// Each Render call owns its browser and tears it down before returning,
// whatever the outcome. Use a JobLimiter to bound concurrent browsers.
//
// # Modes
//
// ModeSystem follows the viewer's preference in the live preview but is
// resolved to ModeLight or ModeDark before capture, so the PDF never depends
// on the rendering machine's settings.
//
// # Errors
//
// Errors wrap the sentinels declared in errors.go; classify them with
// errors.Is:
//
//	if errors.Is(err, themepdf.ErrRenderTimeout) {
//	    // raise the timeout or check font downloads
//	}
package themepdf
