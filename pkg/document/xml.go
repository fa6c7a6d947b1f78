//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package document

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// DefaultIndent is the indentation written for each level of children.
const DefaultIndent = "  "

const declaration = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Load reads and parses the XML file at path.
// Both read and syntax failures are returned as a *ParseError.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()
	d, err := Parse(bufio.NewReader(f))
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
			return nil, pe
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	return d, nil
}

// Parse builds a document from XML read from r.
// Namespace prefixes are kept as part of tag and attribute names.
func Parse(r io.Reader) (*Document, error) {
	d := newDocument()
	decoder := xml.NewDecoder(r)

	var stack []*Node
	var texts []*strings.Builder
	closed := false

	for {
		token, err := decoder.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		switch t := token.(type) {
		case xml.ProcInst:
			if t.Target == "xml" {
				d.declaration = true
			}
		case xml.Directive:
			if d.root == nil && bytes.HasPrefix(t, []byte("DOCTYPE")) {
				d.doctype = string(t)
			}
		case xml.StartElement:
			if closed {
				return nil, &ParseError{Err: ErrContentAfterRoot}
			}
			n := d.newNode(qualifiedName(t.Name), "")
			for _, a := range t.Attr {
				n.setAttribute(qualifiedName(a.Name), a.Value)
			}
			if len(stack) == 0 {
				d.root = n
			} else {
				parent := stack[len(stack)-1]
				n.parent = parent
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
			texts = append(texts, &strings.Builder{})
		case xml.EndElement:
			name := qualifiedName(t.Name)
			if len(stack) == 0 || stack[len(stack)-1].tag != name {
				return nil, &ParseError{Err: fmt.Errorf("%w: unexpected </%s>", ErrUnbalanced, name)}
			}
			top := len(stack) - 1
			n := stack[top]
			text := texts[top].String()
			if n.HasChildren() {
				text = strings.TrimSpace(text)
			}
			n.text = text
			stack = stack[:top]
			texts = texts[:top]
			if len(stack) == 0 {
				closed = true
			}
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, &ParseError{Err: ErrContentAfterRoot}
				}
				continue
			}
			texts[len(texts)-1].Write(t)
		}
	}
	if len(stack) > 0 {
		return nil, &ParseError{Err: fmt.Errorf("%w: <%s> is not closed", ErrUnbalanced, stack[len(stack)-1].tag)}
	}
	if d.root == nil {
		return nil, &ParseError{Err: ErrNoRoot}
	}
	return d, nil
}

func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

// Serialize writes the document as XML to w.
// Formatting is regenerated; tags, texts, attributes and ordering round-trip.
func (d *Document) Serialize(w io.Writer) error {
	if d.root == nil {
		return ErrNoRoot
	}
	bw := bufio.NewWriter(w)
	if d.declaration {
		if _, err := bw.WriteString(declaration); err != nil {
			return err
		}
	}
	if d.doctype != "" {
		if _, err := bw.WriteString("<!" + d.doctype + ">\n"); err != nil {
			return err
		}
	}
	encoder := xml.NewEncoder(bw)
	encoder.Indent("", d.indent)
	if err := encodeNode(encoder, d.root); err != nil {
		return err
	}
	if err := encoder.Flush(); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}

// Bytes returns the serialized document.
func (d *Document) Bytes() ([]byte, error) {
	var b bytes.Buffer
	if err := d.Serialize(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// WriteFile serializes the document to path, replacing any existing content.
func (d *Document) WriteFile(path string) error {
	b, err := d.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func encodeNode(encoder *xml.Encoder, n *Node) error {
	if !isName(n.tag) {
		return fmt.Errorf("%w: %q", ErrMalformedTag, n.tag)
	}
	start := xml.StartElement{Name: xml.Name{Local: n.tag}}
	for _, a := range n.attrs {
		if !isName(a.Key) {
			return fmt.Errorf("%w: attribute %q of <%s>", ErrMalformedTag, a.Key, n.tag)
		}
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Key}, Value: a.Value})
	}
	if err := encoder.EncodeToken(start); err != nil {
		return fmt.Errorf("encoding <%s>: %w", n.tag, err)
	}
	if n.text != "" {
		if err := encoder.EncodeToken(xml.CharData(n.text)); err != nil {
			return fmt.Errorf("encoding text of <%s>: %w", n.tag, err)
		}
	}
	for _, c := range n.children {
		if err := encodeNode(encoder, c); err != nil {
			return err
		}
	}
	return encoder.EncodeToken(start.End())
}

// isName reports whether s is usable as an element or attribute name.
func isName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r), r == '_', r == ':':
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.' || unicode.Is(unicode.Mn, r)):
		default:
			return false
		}
	}
	return !strings.HasPrefix(s, ":") && !strings.HasSuffix(s, ":")
}
