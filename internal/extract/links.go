package extract

import (
	"errors"
	"strings"

	"github.com/nao1215/webscraper/internal/markup"
	"github.com/nao1215/webscraper/internal/model"
)

// ErrLinkNotFound is returned when no hyperlink carries the searched text.
var ErrLinkNotFound = errors.New("no hyperlink matches the link text")

// Hyperlinks returns every anchor under doc that has an href, in document
// order. The link text is the first text node below the anchor; anchors
// without one (image-only links) get HasText=false.
func Hyperlinks(doc *markup.Node) []model.Hyperlink {
	links := make([]model.Hyperlink, 0)
	if doc == nil {
		return links
	}
	for _, a := range doc.FindAll("a") {
		href, ok := a.Attr("href")
		if !ok {
			continue
		}
		if text, ok := a.FirstText(); ok {
			links = append(links, model.NewHyperlink(href, text))
		} else {
			links = append(links, model.NewTextlessHyperlink(href))
		}
	}
	return links
}

// FindByText returns the destination of the first hyperlink whose text
// equals target, ignoring case. The text is compared as is, without
// trimming. Links without text never match.
func FindByText(links []model.Hyperlink, target string) (string, bool) {
	for _, l := range links {
		if !l.HasText {
			continue
		}
		if strings.EqualFold(l.Text, target) {
			return l.Destination, true
		}
	}
	return "", false
}

// Destinations returns the destination of every hyperlink, in order.
func Destinations(links []model.Hyperlink) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.Destination)
	}
	return out
}
