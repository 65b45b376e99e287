// Package markup provides the parsed HTML tree used by the extractors.
//
// The tree is built from golang.org/x/net/html, then converted into a
// small tagged-variant Node type. Every node carries a Kind
// (KindDocument, KindTag, KindText or KindComment) and traversal code
// switches on that Kind instead of inspecting concrete types.
//
// Design decision: We convert the x/net/html tree rather than exposing
// *html.Node directly because:
//  1. Doctype and raw nodes never matter to extraction and are dropped here
//  2. Attribute lookup is exposed as an optional accessor (Attr) so that a
//     missing attribute is a normal result, not a special case at call sites
//  3. Tests can build trees by hand without going through the HTML parser
//
// # Usage
//
//	doc, err := markup.Parse(strings.NewReader(body))
//	for _, img := range doc.FindAll("img") {
//	    if src, ok := img.Attr("src"); ok {
//	        fmt.Println(src)
//	    }
//	}
package markup
