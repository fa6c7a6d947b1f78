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
	"fmt"
	"strings"
)

// A Document owns a single-rooted tree of nodes.
// Every node receives an id when it is parsed or added; ids are never reused.
type Document struct {
	root        *Node
	nodes       map[int]*Node
	nextID      int
	declaration bool   // true if an XML declaration is written on serialize
	doctype     string // document type declaration, without "<!" and ">"
	indent      string // indentation used by Serialize
}

func newDocument() *Document {
	return &Document{
		nodes:  make(map[int]*Node),
		nextID: 1,
		indent: DefaultIndent,
	}
}

// New creates a document containing only a root element with the given tag.
func New(rootTag string) *Document {
	d := newDocument()
	d.declaration = true
	d.root = d.newNode(rootTag, "")
	return d
}

func (d *Document) newNode(tag, text string) *Node {
	n := &Node{id: d.nextID, tag: tag, text: text, attached: true}
	d.nextID++
	d.nodes[n.id] = n
	return n
}

// GetRoot returns the root node, or nil for an empty document.
func (d *Document) GetRoot() *Node {
	return d.root
}

// GetDoctype returns the document type declaration of the source, if any.
func (d *Document) GetDoctype() string {
	return d.doctype
}

// GetNode looks up an attached node by id.
func (d *Document) GetNode(id int) *Node {
	return d.nodes[id]
}

// GetNodeCount returns the number of nodes in the tree.
func (d *Document) GetNodeCount() int {
	return len(d.nodes)
}

// SetIndent sets the indentation used when serializing children.
func (d *Document) SetIndent(indent string) {
	d.indent = indent
}

func (d *Document) owns(n *Node) bool {
	return n != nil && n.attached && d.nodes[n.id] == n
}

// GetChildren returns the direct children of n in document order.
func (d *Document) GetChildren(n *Node) []*Node {
	if !d.owns(n) {
		return nil
	}
	return n.GetChildren()
}

// HasChildren reports whether n has at least one child element.
func (d *Document) HasChildren(n *Node) bool {
	return d.owns(n) && n.HasChildren()
}

// SetTag renames n. Tag legality is only checked on serialization.
func (d *Document) SetTag(n *Node, tag string) error {
	if !d.owns(n) {
		return ErrNodeNotFound
	}
	n.tag = tag
	return nil
}

// SetText replaces the text of n. Text of an element with children is
// trimmed, as it is when parsed.
func (d *Document) SetText(n *Node, text string) error {
	if !d.owns(n) {
		return ErrNodeNotFound
	}
	if n.HasChildren() {
		text = strings.TrimSpace(text)
	}
	n.text = text
	return nil
}

// SetAttribute adds the attribute or replaces the value of an existing one.
func (d *Document) SetAttribute(n *Node, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if !d.owns(n) {
		return ErrNodeNotFound
	}
	n.setAttribute(key, value)
	return nil
}

// RemoveAttribute deletes an attribute. Removing a missing key does nothing.
func (d *Document) RemoveAttribute(n *Node, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if !d.owns(n) {
		return ErrNodeNotFound
	}
	n.removeAttribute(key)
	return nil
}

// AddChild appends a new leaf with the given tag and text to parent.
func (d *Document) AddChild(parent *Node, tag, text string) (*Node, error) {
	if !d.owns(parent) {
		return nil, ErrNodeNotFound
	}
	child := d.newNode(tag, text)
	child.parent = parent
	parent.children = append(parent.children, child)
	parent.text = strings.TrimSpace(parent.text)
	return child, nil
}

// RemoveNode detaches n and its subtree. The root cannot be removed.
func (d *Document) RemoveNode(n *Node) error {
	if !d.owns(n) {
		return ErrNodeNotFound
	}
	if n == d.root {
		return fmt.Errorf("%w: the root node cannot be removed", ErrInvalidOperation)
	}
	parent := n.parent
	i := parent.childIndex(n)
	if i < 0 {
		return fmt.Errorf("%w: node %d is not a child of its parent", ErrInvalidOperation, n.id)
	}
	parent.children = append(parent.children[:i], parent.children[i+1:]...)
	n.walk(func(m *Node) bool {
		delete(d.nodes, m.id)
		m.attached = false
		return true
	})
	n.parent = nil
	return nil
}

// Walk visits every node in document order until fn returns false.
func (d *Document) Walk(fn func(*Node) bool) {
	if d.root != nil {
		d.root.walk(fn)
	}
}

// Find returns the first node in document order with the given tag.
func (d *Document) Find(tag string) *Node {
	var found *Node
	d.Walk(func(n *Node) bool {
		if n.tag == tag {
			found = n
			return false
		}
		return true
	})
	return found
}

// Path returns a slash-separated address for n such as /catalog/book[2]/title.
// Positions are 1-based and only shown when siblings share a tag.
func (d *Document) Path(n *Node) string {
	if !d.owns(n) {
		return ""
	}
	var parts []string
	for m := n; m != nil; m = m.parent {
		part := m.tag
		if m.parent != nil {
			position, count := 0, 0
			for _, sibling := range m.parent.children {
				if sibling.tag == m.tag {
					count++
					if sibling == m {
						position = count
					}
				}
			}
			if count > 1 {
				part = fmt.Sprintf("%s[%d]", m.tag, position)
			}
		}
		parts = append(parts, part)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}
