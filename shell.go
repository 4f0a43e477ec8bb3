package themepdf

import "strings"

// trustedFontLinks are the only external references a rendered document may
// carry. They are fixed here and never taken from request input.
var trustedFontLinks = []string{
	`<link rel="preconnect" href="https://fonts.googleapis.com">`,
	`<link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>`,
	`<link href="` + FontStylesheetURL + `" rel="stylesheet">`,
}

// FontStylesheetURL is the Google Fonts stylesheet for Inter and Oswald.
const FontStylesheetURL = "https://fonts.googleapis.com/css2?family=Inter:wght@300;400;500;600;700&family=Oswald:wght@400;500;700&display=swap"

// baselineReset removes the body margin and forces background printing.
const baselineReset = "body { margin: 0; padding: 0; -webkit-print-color-adjust: exact; print-color-adjust: exact; }"

// AssembleDocument wraps a snapshot in a complete HTML document: doctype,
// UTF-8 charset, trusted font links, one <style> holding the reset followed
// by the snapshot CSS, and the fragment as the body content.
//
// Both the CSS and the fragment are inserted verbatim.
func AssembleDocument(s Snapshot) string {
	var b strings.Builder
	b.Grow(len(s.HTML) + len(s.CSS) + 1024)

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"UTF-8\">\n")
	for _, link := range trustedFontLinks {
		b.WriteString(link)
		b.WriteByte('\n')
	}
	b.WriteString("<style>\n")
	b.WriteString(baselineReset)
	b.WriteByte('\n')
	b.WriteString(s.CSS)
	b.WriteString("\n</style>\n</head>\n<body>\n")
	b.WriteString(s.HTML)
	b.WriteString("\n</body>\n</html>\n")

	return b.String()
}
