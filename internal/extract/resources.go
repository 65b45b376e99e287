package extract

import "github.com/nao1215/webscraper/internal/markup"

// Rule names a tag and the attribute holding its resource locator.
type Rule struct {
	// Tag is the lower-case tag name, e.g. "img".
	Tag string `yaml:"tag" json:"tag"`

	// Attribute is the attribute read from each matching tag, e.g. "src".
	Attribute string `yaml:"attribute" json:"attribute"`
}

// DefaultRules is the resource table used when no other is configured.
// Images, stylesheets and other link relations, then scripts.
var DefaultRules = []Rule{
	{Tag: "img", Attribute: "src"},
	{Tag: "link", Attribute: "href"},
	{Tag: "script", Attribute: "src"},
}

// AttributeValues returns the attr value of every tag element under doc, in
// document order. Tags without the attribute are skipped.
func AttributeValues(doc *markup.Node, tag, attr string) []string {
	values := make([]string, 0)
	if doc == nil {
		return values
	}
	for _, n := range doc.FindAll(tag) {
		if v, ok := n.Attr(attr); ok {
			values = append(values, v)
		}
	}
	return values
}

// Resources returns every resource locator named by rules.
// Results are grouped by rule in table order; within one rule they follow
// document order. Duplicates are kept.
func Resources(doc *markup.Node, rules []Rule) []string {
	locators := make([]string, 0)
	for _, r := range rules {
		locators = append(locators, AttributeValues(doc, r.Tag, r.Attribute)...)
	}
	return locators
}

// IsExternal reports whether a resource locator points off the page's host.
// Empty locators, root-relative paths ("/x") and fragments ("#x") are local;
// everything else is treated as external. This is a first-character check
// only: "x.png" counts as external while the protocol-relative
// "//cdn.example.com/x.js" counts as local.
func IsExternal(locator string) bool {
	if locator == "" {
		return false
	}
	switch locator[0] {
	case '/', '#':
		return false
	default:
		return true
	}
}

// ExternalResources returns the externally hosted locators among Resources.
func ExternalResources(doc *markup.Node, rules []Rule) []string {
	external := make([]string, 0)
	for _, l := range Resources(doc, rules) {
		if IsExternal(l) {
			external = append(external, l)
		}
	}
	return external
}
