package themepdf

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/charmbracelet/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-themepdf/internal/assets"
)

// StyleSource resolves a same-origin stylesheet to its CSS text.
type StyleSource interface {
	LoadStylesheet(u *url.URL) (string, error)
}

// StylesPath is the URL prefix under which workspace stylesheets are served.
const StylesPath = "/assets/styles/"

// AssetStyleSource serves StylesPath{name}.css from an asset loader.
type AssetStyleSource struct {
	Loader assets.AssetLoader
}

// NewAssetStyleSource returns a StyleSource backed by loader.
func NewAssetStyleSource(loader assets.AssetLoader) *AssetStyleSource {
	return &AssetStyleSource{Loader: loader}
}

// LoadStylesheet implements StyleSource.
func (s *AssetStyleSource) LoadStylesheet(u *url.URL) (string, error) {
	name, ok := StyleNameFromPath(u.Path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrStylesheetMissing, u.Path)
	}
	text, err := s.Loader.LoadStyle(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStylesheetMissing, err)
	}
	return text, nil
}

// StyleNameFromPath extracts {name} from StylesPath{name}.css.
func StyleNameFromPath(p string) (string, bool) {
	if !strings.HasPrefix(p, StylesPath) || !strings.HasSuffix(p, ".css") {
		return "", false
	}
	name := strings.TrimSuffix(strings.TrimPrefix(p, StylesPath), ".css")
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

// Compile-time interface check.
var _ StyleSource = (*AssetStyleSource)(nil)

// styleCollector gathers rule text from a parsed page in document order.
type styleCollector struct {
	origin *url.URL
	source StyleSource
	logger *log.Logger
}

// sheet is one attached stylesheet: inline text or a resolved link.
type sheet struct {
	inline string
	href   *url.URL
}

// collect returns every rule reachable from same-origin sheets, joined by
// newlines. Cross-origin and unreadable sheets are skipped with a warning.
func (c *styleCollector) collect(doc *html.Node) string {
	var rules []string
	for _, sh := range c.sheets(doc) {
		text, ok := c.sheetText(sh)
		if !ok {
			continue
		}
		rules = append(rules, c.rules(text, sh)...)
	}
	return strings.Join(rules, "\n")
}

func (c *styleCollector) sheets(doc *html.Node) []sheet {
	var out []sheet
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Style:
				out = append(out, sheet{inline: textContent(n)})
				return
			case atom.Link:
				if isStylesheetLink(n) {
					href := attr(n, "href")
					if u, err := c.origin.Parse(href); err == nil {
						out = append(out, sheet{href: u})
					} else {
						c.logger.Warn("skipping stylesheet with invalid href", "href", href, "err", err)
					}
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return out
}

func (c *styleCollector) sheetText(sh sheet) (string, bool) {
	if sh.href == nil {
		return sh.inline, true
	}
	if !sameOrigin(c.origin, sh.href) {
		c.logger.Warn("skipping cross-origin stylesheet", "href", sh.href.String())
		return "", false
	}
	if c.source == nil {
		c.logger.Warn("no style source configured, skipping stylesheet", "href", sh.href.String())
		return "", false
	}
	text, err := c.source.LoadStylesheet(sh.href)
	if err != nil {
		c.logger.Warn("skipping unreadable stylesheet", "href", sh.href.String(), "err", err)
		return "", false
	}
	return text, true
}

// maxImportDepth bounds @import nesting.
const maxImportDepth = 8

// rules splits a sheet into its top-level rules. A sheet the parser rejects
// is kept whole so no author CSS is lost. Same-origin @import rules are
// replaced by the rules of the imported sheet.
func (c *styleCollector) rules(text string, sh sheet) []string {
	base, where := c.origin, "inline <style>"
	chain := map[string]bool{}
	if sh.href != nil {
		base, where = sh.href, sh.href.String()
		chain[sh.href.String()] = true
	}
	return c.parseRules(text, where, base, chain, 0)
}

func (c *styleCollector) parseRules(text, where string, base *url.URL, chain map[string]bool, depth int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	ss, err := parser.Parse(text)
	if err != nil {
		c.logger.Warn("stylesheet did not parse, keeping raw text", "sheet", where, "err", err)
		return []string{text}
	}
	out := make([]string, 0, len(ss.Rules))
	for _, r := range ss.Rules {
		if r.Kind == css.AtRule && strings.EqualFold(r.Name, "@import") {
			out = append(out, c.importRules(r.Prelude, base, chain, depth)...)
			continue
		}
		out = append(out, r.String())
	}
	return out
}

// importRules loads the sheet named by an @import prelude and returns its
// rules, wrapped in @media when the import carries a media query. Imports
// that cannot be inlined are dropped with a warning.
func (c *styleCollector) importRules(prelude string, base *url.URL, chain map[string]bool, depth int) []string {
	href, media, ok := importTarget(prelude)
	if !ok {
		c.logger.Warn("dropping malformed @import", "prelude", prelude)
		return nil
	}
	u, err := base.Parse(href)
	if err != nil {
		c.logger.Warn("dropping @import with invalid url", "href", href, "err", err)
		return nil
	}
	key := u.String()

	switch {
	case !sameOrigin(c.origin, u):
		c.logger.Warn("dropping cross-origin @import", "href", key)
		return nil
	case chain[key]:
		c.logger.Warn("dropping cyclic @import", "href", key)
		return nil
	case depth >= maxImportDepth:
		c.logger.Warn("dropping @import nested too deep", "href", key, "max", maxImportDepth)
		return nil
	case c.source == nil:
		c.logger.Warn("no style source configured, dropping @import", "href", key)
		return nil
	}

	text, err := c.source.LoadStylesheet(u)
	if err != nil {
		c.logger.Warn("dropping unreadable @import", "href", key, "err", err)
		return nil
	}

	chain[key] = true
	defer delete(chain, key)

	rules := c.parseRules(text, key, u, chain, depth+1)
	if media == "" || len(rules) == 0 {
		return rules
	}
	return []string{"@media " + media + " {\n" + strings.Join(rules, "\n") + "\n}"}
}

// importTarget splits an @import prelude into its URL and media query.
// Both url(...) and bare string forms are accepted.
func importTarget(prelude string) (href, media string, ok bool) {
	p := strings.TrimSpace(prelude)
	var rest string
	switch {
	case len(p) >= 4 && strings.EqualFold(p[:4], "url("):
		end := strings.IndexByte(p, ')')
		if end < 0 {
			return "", "", false
		}
		href, rest = strings.TrimSpace(p[4:end]), p[end+1:]
		href = strings.Trim(href, `"'`)
	case strings.HasPrefix(p, `"`) || strings.HasPrefix(p, "'"):
		end := strings.IndexByte(p[1:], p[0])
		if end < 0 {
			return "", "", false
		}
		href, rest = p[1:end+1], p[end+2:]
	default:
		return "", "", false
	}
	if href == "" {
		return "", "", false
	}
	return href, strings.TrimSpace(rest), true
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}

func isStylesheetLink(n *html.Node) bool {
	for _, rel := range strings.Fields(attr(n, "rel")) {
		if strings.EqualFold(rel, "stylesheet") {
			return attr(n, "href") != ""
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
		}
	}
	return b.String()
}
