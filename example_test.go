package themepdf_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	themepdf "github.com/alnah/go-themepdf"
	"github.com/alnah/go-themepdf/internal/assets"
)

// Example shows the client side of an export: render the workspace, then
// capture the export paper as a self-contained snapshot. The snapshot is
// what the render service turns into a PDF.
func Example() {
	state := themepdf.NewAppState()
	state.System = themepdf.StaticPreference(false)
	state.Document = themepdf.Document{Title: "Notes", Body: "First.\n\nSecond."}
	if err := state.SetTheme("luxury"); err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := state.SetMode("dark"); err != nil {
		fmt.Println("error:", err)
		return
	}

	previewer, err := themepdf.NewPreviewer()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	var page bytes.Buffer
	if err := previewer.RenderWorkspace(&page, state, themepdf.PreviewOptions{}); err != nil {
		fmt.Println("error:", err)
		return
	}

	loader, err := assets.NewAssetResolver("")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	builder, err := themepdf.NewSnapshotBuilder("http://localhost:3000",
		themepdf.WithStyleSource(themepdf.NewAssetStyleSource(loader)),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	snap, err := builder.Build(context.Background(), &page, themepdf.ExportRootID,
		func(percent int, message string) {
			fmt.Printf("%d%% %s\n", percent, message)
		})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(strings.Contains(snap.HTML, "force-dark-mode"))
	fmt.Println(snap.CSS != "")
	// Output:
	// 10% Collecting page styles...
	// 30% Serializing document...
	// 100% Snapshot ready
	// true
	// true
}

func ExampleLookupTheme() {
	theme, err := themepdf.LookupTheme("Brutalist")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(theme.ID, theme.Name)

	_, err = themepdf.LookupTheme("neon")
	fmt.Println(err != nil)
	// Output:
	// brutalist Brutalist
	// true
}

func ExampleMode_Resolve() {
	prefersDark := themepdf.StaticPreference(true)

	fmt.Println(themepdf.ModeSystem.Resolve(prefersDark))
	fmt.Println(themepdf.ModeSystem.Resolve(nil))
	fmt.Println(themepdf.ModeLight.Resolve(prefersDark))
	fmt.Println(themepdf.ModeDark.OverrideClass())
	// Output:
	// dark
	// light
	// light
	// force-dark-mode
}

func ExampleDocumentFromFile() {
	doc, err := themepdf.DocumentFromFile("draft.txt", []byte("One.\r\n\r\n  \n\nTwo."))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(doc.Title)
	fmt.Println(len(doc.Paragraphs()))

	_, err = themepdf.DocumentFromFile("report.pdf", nil)
	fmt.Println(err != nil)
	// Output:
	// draft
	// 2
	// true
}

func ExampleJobLimiter() {
	limiter := themepdf.NewJobLimiter(2)
	defer limiter.Close()

	release, err := limiter.Acquire(context.Background())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(limiter.Size(), limiter.InFlight())
	release()
	fmt.Println(limiter.InFlight())
	// Output:
	// 2 1
	// 0
}
