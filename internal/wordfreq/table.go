package wordfreq

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Entry is a single word and its number of occurrences.
type Entry struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Table maps normalized words to occurrence counts.
// It remembers the order in which words were first seen and uses that
// order when iterating and when encoding to JSON.
// The zero value is not usable; create tables with NewTable.
type Table struct {
	order  []string
	counts map[string]int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		order:  make([]string, 0),
		counts: make(map[string]int),
	}
}

// Add increments the count of word by one.
// The empty string is never stored.
func (t *Table) Add(word string) {
	t.add(word, 1)
}

// add increments word by n. Non-positive n and empty words are ignored.
func (t *Table) add(word string, n int) {
	if word == "" || n <= 0 {
		return
	}
	if _, ok := t.counts[word]; !ok {
		t.order = append(t.order, word)
	}
	t.counts[word] += n
}

// Get returns the count for word, or 0 if it was never added.
func (t *Table) Get(word string) int {
	return t.counts[word]
}

// Len returns the number of distinct words.
func (t *Table) Len() int {
	return len(t.order)
}

// Total returns the sum of all counts.
func (t *Table) Total() int {
	total := 0
	for _, c := range t.counts {
		total += c
	}
	return total
}

// Words returns the distinct words in first-seen order.
func (t *Table) Words() []string {
	words := make([]string, len(t.order))
	copy(words, t.order)
	return words
}

// Entries returns every word with its count in first-seen order.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, 0, len(t.order))
	for _, w := range t.order {
		entries = append(entries, Entry{Word: w, Count: t.counts[w]})
	}
	return entries
}

// Top returns up to n entries ordered by count, highest first.
// Ties keep first-seen order. A non-positive n returns every entry.
func (t *Table) Top(n int) []Entry {
	entries := t.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// Equal reports whether both tables hold the same words, counts and order.
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.order) != len(other.order) {
		return false
	}
	for i, w := range t.order {
		if other.order[i] != w || other.counts[w] != t.counts[w] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the table as a JSON object whose keys appear in
// first-seen order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, w := range t.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(w)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", t.counts[w])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// errNotObject is returned when decoding anything other than a JSON object.
var errNotObject = errors.New("word frequency table must be a JSON object")

// UnmarshalJSON decodes a JSON object of word → count, keeping key order.
func (t *Table) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errNotObject
	}

	decoded := NewTable()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		word, ok := tok.(string)
		if !ok {
			return errNotObject
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("invalid count for %q: %w", word, err)
		}
		decoded.add(word, count)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*t = *decoded
	return nil
}
