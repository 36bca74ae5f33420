// Package feed flattens Atom and RSS documents into entry records.
//
// The parser is deliberately tolerant about namespaces: a child is looked up
// first in the Atom namespace, then without a namespace, then under any
// namespace with the same local name. It is strict about well-formedness: a
// document that fails to decode yields no entries at all.
package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"
)

// AtomNamespace is the Atom 1.0 XML namespace
const AtomNamespace = "http://www.w3.org/2005/Atom"

// Entry is one Atom <entry> or RSS <item> reduced to the fields alerts are built from
type Entry struct {
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Updated string `json:"updated,omitempty"`
	Content string `json:"content,omitempty"`
}

// Parse returns the entries of doc in document order. It never fails: an
// unrecognised or malformed document produces an empty result.
func Parse(doc []byte) []Entry {
	entries, err := ParseDocument(doc)
	if err != nil {
		return nil
	}
	return entries
}

// ParseString is Parse for string input
func ParseString(doc string) []Entry {
	return Parse([]byte(doc))
}

// ParseDocument is Parse with the reason for an empty result exposed for logging
func ParseDocument(doc []byte) ([]Entry, error) {
	if len(bytes.TrimSpace(doc)) == 0 {
		return nil, nil
	}

	feedType := gofeed.DetectFeedType(bytes.NewReader(doc))
	if feedType != gofeed.FeedTypeAtom && feedType != gofeed.FeedTypeRSS {
		return nil, fmt.Errorf("unsupported document type")
	}

	root, err := decodeTree(doc)
	if err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}

	nodes := itemNodes(root, feedType)
	entries := make([]Entry, 0, len(nodes))
	for i, n := range nodes {
		entries = append(entries, Entry{
			Index:   i,
			ID:      n.firstText("id", "guid"),
			Title:   n.firstText("title"),
			Updated: n.firstText("updated", "published", "pubDate"),
			Content: n.firstContent("content", "description", "summary"),
		})
	}
	return entries, nil
}

// itemNodes picks the record elements for the detected feed type. RSS 2.0
// nests items in the channel; RSS 1.0 keeps them beside it.
func itemNodes(root *element, feedType gofeed.FeedType) []*element {
	if feedType == gofeed.FeedTypeAtom {
		return root.childrenNamed("entry")
	}
	if channel := root.child("channel"); channel != nil {
		if nodes := channel.childrenNamed("item"); len(nodes) > 0 {
			return nodes
		}
	}
	return root.childrenNamed("item")
}

type element struct {
	name       xml.Name
	attrs      []xml.Attr
	children   []*element
	text       strings.Builder
	inner      string
	innerStart int64
}

// decodeTree builds a minimal element tree. Every element accumulates the text
// of all its descendants in document order; inner keeps the raw markup between
// its tags when the input was not transcoded.
func decodeTree(doc []byte) (*element, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	transcoded := false
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		transcoded = true
		return charset.NewReaderLabel(label, input)
	}

	var root *element
	var stack []*element

	for {
		before := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: t.Name, attrs: t.Attr, innerStart: dec.InputOffset()}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced end element %q", t.Name.Local)
			}
			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !transcoded && before >= el.innerStart && before <= int64(len(doc)) {
				el.inner = string(doc[el.innerStart:before])
			}
		case xml.CharData:
			for _, el := range stack {
				el.text.Write(t)
			}
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("unexpected end of document")
	}
	return root, nil
}

// child returns the first child named local, preferring the Atom namespace,
// then no namespace, then any namespace
func (e *element) child(local string) *element {
	var bare, other *element
	for _, c := range e.children {
		if c.name.Local != local {
			continue
		}
		switch c.name.Space {
		case AtomNamespace:
			return c
		case "":
			if bare == nil {
				bare = c
			}
		default:
			if other == nil {
				other = c
			}
		}
	}
	if bare != nil {
		return bare
	}
	return other
}

// childrenNamed returns children named local, Atom-namespaced ones if any exist
func (e *element) childrenNamed(local string) []*element {
	var atom, rest []*element
	for _, c := range e.children {
		if c.name.Local != local {
			continue
		}
		if c.name.Space == AtomNamespace {
			atom = append(atom, c)
		} else {
			rest = append(rest, c)
		}
	}
	if len(atom) > 0 {
		return atom
	}
	return rest
}

func (e *element) attr(local string) string {
	for _, a := range e.attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// firstText returns the first non-empty trimmed text among the named children
func (e *element) firstText(locals ...string) string {
	for _, local := range locals {
		if c := e.child(local); c != nil {
			if v := strings.TrimSpace(c.text.String()); v != "" {
				return v
			}
		}
	}
	return ""
}

// firstContent is firstText, except that an html/xhtml body with no text of
// its own falls back to its raw markup
func (e *element) firstContent(locals ...string) string {
	for _, local := range locals {
		c := e.child(local)
		if c == nil {
			continue
		}
		if v := strings.TrimSpace(c.text.String()); v != "" {
			return v
		}
		switch strings.ToLower(c.attr("type")) {
		case "html", "xhtml":
			if v := strings.TrimSpace(c.inner); v != "" {
				return v
			}
		}
	}
	return ""
}
