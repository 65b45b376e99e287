package model

import "encoding/json"

// Hyperlink is an anchor destination paired with its link text.
// Anchors without an href never become a Hyperlink, so Destination is
// always taken from a real attribute (it may still be the empty string).
type Hyperlink struct {
	// Destination is the raw href value.
	Destination string

	// Text is the first text found inside the anchor.
	// Only meaningful when HasText is true.
	Text string

	// HasText is false for anchors without any text, such as image-only links.
	HasText bool
}

// NewHyperlink returns a hyperlink with link text.
func NewHyperlink(destination, text string) Hyperlink {
	return Hyperlink{Destination: destination, Text: text, HasText: true}
}

// NewTextlessHyperlink returns a hyperlink whose anchor has no text.
func NewTextlessHyperlink(destination string) Hyperlink {
	return Hyperlink{Destination: destination}
}

// hyperlinkJSON is the wire form; a missing text is encoded as null.
type hyperlinkJSON struct {
	Destination string  `json:"destination"`
	Text        *string `json:"text"`
}

// MarshalJSON encodes the hyperlink with a null text when HasText is false.
func (h Hyperlink) MarshalJSON() ([]byte, error) {
	out := hyperlinkJSON{Destination: h.Destination}
	if h.HasText {
		text := h.Text
		out.Text = &text
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (h *Hyperlink) UnmarshalJSON(data []byte) error {
	var in hyperlinkJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	h.Destination = in.Destination
	h.Text = ""
	h.HasText = in.Text != nil
	if in.Text != nil {
		h.Text = *in.Text
	}
	return nil
}
