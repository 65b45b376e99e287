package extract

import (
	"strings"

	"github.com/nao1215/webscraper/internal/markup"
)

// hiddenContainers are the tags whose direct text never renders.
var hiddenContainers = map[string]struct{}{
	"head":   {},
	"title":  {},
	"meta":   {},
	"script": {},
	"style":  {},
}

// IsVisible reports whether a text node would be rendered.
// Comments, text sitting directly under the document root and text whose
// parent is one of head, title, meta, script or style are not visible.
// Only the direct parent is checked; CSS is not taken into account.
func IsVisible(n *markup.Node) bool {
	if n == nil || n.Kind != markup.KindText {
		return false
	}
	parent := n.Parent
	if parent == nil || parent.Kind == markup.KindDocument {
		return false
	}
	if parent.Kind == markup.KindTag {
		if _, hidden := hiddenContainers[parent.Name]; hidden {
			return false
		}
	}
	return true
}

// VisibleText joins every visible text node under doc with a single space.
// Each node is trimmed first. Whitespace-only nodes still take part in the
// join, so runs of blank nodes leave runs of spaces behind.
func VisibleText(doc *markup.Node) string {
	if doc == nil {
		return ""
	}
	parts := make([]string, 0)
	for _, n := range doc.Texts() {
		if IsVisible(n) {
			parts = append(parts, strings.TrimSpace(n.Data))
		}
	}
	return strings.Join(parts, " ")
}
