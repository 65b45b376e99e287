package markup

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Kind identifies the variant of a Node.
type Kind int

const (
	// KindDocument is the synthetic root of a parsed document.
	KindDocument Kind = iota
	// KindTag is an element such as <a> or <script>.
	KindTag
	// KindText is a run of character data.
	KindText
	// KindComment is an HTML comment (<!-- ... -->).
	KindComment
)

// String returns the kind name used in logs and test failures.
func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindTag:
		return "tag"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Attribute is a single name/value pair on a tag.
type Attribute struct {
	Name  string
	Value string
}

// Node is one node of the parsed tree.
// Parent is a back-reference; Children are owned by the node.
type Node struct {
	// Kind selects which of the remaining fields are meaningful.
	Kind Kind

	// Name is the lower-case tag name. Empty unless Kind is KindTag.
	Name string

	// Data is the character data of a text or comment node.
	Data string

	// Attrs holds the tag attributes in source order.
	Attrs []Attribute

	Parent   *Node
	Children []*Node
}

// Parse reads an HTML document and returns its root node.
// The parser follows the HTML5 algorithm, so malformed markup never fails
// here; errors only come from the reader.
func Parse(r io.Reader) (*Node, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return convert(root, nil), nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

// convert copies an x/net/html subtree into Nodes.
// Doctype and raw nodes return nil and are dropped by the caller.
func convert(n *html.Node, parent *Node) *Node {
	var node *Node
	switch n.Type {
	case html.DocumentNode:
		node = &Node{Kind: KindDocument}
	case html.ElementNode:
		node = &Node{Kind: KindTag, Name: strings.ToLower(n.Data)}
		if len(n.Attr) > 0 {
			node.Attrs = make([]Attribute, 0, len(n.Attr))
			for _, a := range n.Attr {
				node.Attrs = append(node.Attrs, Attribute{Name: a.Key, Value: a.Val})
			}
		}
	case html.TextNode:
		node = &Node{Kind: KindText, Data: n.Data}
	case html.CommentNode:
		node = &Node{Kind: KindComment, Data: n.Data}
	default:
		return nil
	}
	node.Parent = parent

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if child := convert(c, node); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

// NewDocument returns an empty document root.
func NewDocument() *Node {
	return &Node{Kind: KindDocument}
}

// NewTag returns a detached tag node.
func NewTag(name string, attrs ...Attribute) *Node {
	return &Node{Kind: KindTag, Name: strings.ToLower(name), Attrs: attrs}
}

// NewText returns a detached text node.
func NewText(data string) *Node {
	return &Node{Kind: KindText, Data: data}
}

// NewComment returns a detached comment node.
func NewComment(data string) *Node {
	return &Node{Kind: KindComment, Data: data}
}

// Append attaches children to n and returns n so trees can be built inline.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Attr returns the value of the named attribute.
// The second result is false when the node is not a tag or lacks the attribute.
func (n *Node) Attr(name string) (string, bool) {
	if n.Kind != KindTag {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// IsTag reports whether n is a tag with the given name.
func (n *Node) IsTag(name string) bool {
	return n.Kind == KindTag && n.Name == name
}

// Walk visits n and every descendant depth-first, left to right.
// Returning false from fn stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// FindAll returns every tag named name under n, in document order.
// n itself is included when it matches.
func (n *Node) FindAll(name string) []*Node {
	name = strings.ToLower(name)
	found := make([]*Node, 0)
	n.Walk(func(c *Node) bool {
		if c.IsTag(name) {
			found = append(found, c)
		}
		return true
	})
	return found
}

// Texts returns every text node under n, in document order.
// Comment nodes are returned as well; callers decide what to keep.
func (n *Node) Texts() []*Node {
	found := make([]*Node, 0)
	n.Walk(func(c *Node) bool {
		switch c.Kind {
		case KindText, KindComment:
			found = append(found, c)
		}
		return true
	})
	return found
}

// FirstText returns the data of the first string descendant of n.
// A comment counts as a string here. The second result is false when n
// has neither, as with an image-only anchor.
func (n *Node) FirstText() (string, bool) {
	var (
		text  string
		found bool
	)
	n.Walk(func(c *Node) bool {
		if c.Kind == KindText || c.Kind == KindComment {
			text, found = c.Data, true
			return false
		}
		return true
	})
	return text, found
}
