// Package extract pulls structured data out of a parsed markup tree.
//
// It covers three concerns:
//   - resource references (img/src, link/href, script/src) and the
//     external-resource classifier
//   - hyperlink enumeration and link-text search
//   - the visible-text filter used before word counting
//
// Every function here is pure: it reads a *markup.Node and returns new
// values without touching the tree or doing any I/O.
//
// Design decision: We keep the tag/attribute pairs in a Rule table instead
// of hard-coding one branch per tag because:
//  1. Adding a tag type is a table change, or a config file change
//  2. The order of the table is the order of the output
//  3. Tests can pass their own rule set
package extract
