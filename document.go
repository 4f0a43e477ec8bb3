package themepdf

import (
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultTitle is shown when a document has no title.
const DefaultTitle = "Untitled Document"

// Document is the user's text content.
type Document struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// DisplayTitle returns the title, or DefaultTitle when it is blank.
func (d Document) DisplayTitle() string {
	if strings.TrimSpace(d.Title) == "" {
		return DefaultTitle
	}
	return d.Title
}

// Paragraphs splits the body on blank-line separators ("\n\n") and drops
// whitespace-only segments. Segments are otherwise kept verbatim.
func (d Document) Paragraphs() []string {
	if d.Body == "" {
		return nil
	}
	raw := strings.Split(d.Body, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Import extensions accepted by DocumentFromFile.
var importExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".json": true,
	".js":   true,
	".ts":   true,
	".html": true,
	".htm":  true,
	".docx": true,
}

// SupportedImportExtensions lists accepted upload extensions.
func SupportedImportExtensions() []string {
	return []string{".txt", ".md", ".json", ".js", ".ts", ".html", ".htm", ".docx"}
}

var (
	blockCloseTag  = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|pre|blockquote|tr|section|article)\s*>|<br\s*/?>`)
	excessNewlines = regexp.MustCompile(`\n{3,}`)
)

// DocumentFromFile builds a Document from an uploaded file. The title is the
// file name without extension. HTML files are reduced to plain text and
// .docx files to their raw paragraph text.
func DocumentFromFile(name string, data []byte) (Document, error) {
	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))
	if !importExtensions[ext] {
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedImport, ext)
	}

	var body string
	switch ext {
	case ".docx":
		text, err := docxText(data)
		if err != nil {
			return Document{}, fmt.Errorf("%w: %s: %v", ErrInvalidDocx, base, err)
		}
		body = text
	case ".html", ".htm":
		body = htmlToText(strings.ReplaceAll(string(data), "\r\n", "\n"))
	default:
		body = strings.ReplaceAll(string(data), "\r\n", "\n")
	}

	return Document{
		Title: strings.TrimSuffix(base, filepath.Ext(base)),
		Body:  body,
	}, nil
}

// htmlToText strips all markup, keeping block boundaries as paragraph breaks.
func htmlToText(s string) string {
	s = blockCloseTag.ReplaceAllString(s, "$0\n\n")
	text := bluemonday.StrictPolicy().Sanitize(s)
	text = html.UnescapeString(text)
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
