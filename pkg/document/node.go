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

// An Attr is one attribute of a node. Keys are unique within a node.
type Attr struct {
	Key   string
	Value string
}

// A Node is one element of a document tree.
// The parent pointer is a back-reference used for addressing only;
// children are owned through the children slice.
type Node struct {
	id       int
	tag      string
	text     string
	attrs    []Attr
	children []*Node
	parent   *Node
	attached bool
}

// GetID returns the node's synthetic id, stable for the life of the document.
func (n *Node) GetID() int {
	return n.id
}

func (n *Node) GetTag() string {
	return n.tag
}

func (n *Node) GetText() string {
	return n.text
}

func (n *Node) GetParent() *Node {
	return n.parent
}

// GetAttributes returns a copy of the node's attributes in document order.
func (n *Node) GetAttributes() []Attr {
	attrs := make([]Attr, len(n.attrs))
	copy(attrs, n.attrs)
	return attrs
}

// GetAttribute returns the value for key and whether it is present.
func (n *Node) GetAttribute(key string) (string, bool) {
	i := n.attributeIndex(key)
	if i < 0 {
		return "", false
	}
	return n.attrs[i].Value, true
}

// GetChildren returns the direct children in document order.
func (n *Node) GetChildren() []*Node {
	children := make([]*Node, len(n.children))
	copy(children, n.children)
	return children
}

func (n *Node) HasChildren() bool {
	return len(n.children) > 0
}

// IsAttached reports whether the node is still part of its document.
func (n *Node) IsAttached() bool {
	return n.attached
}

func (n *Node) attributeIndex(key string) int {
	for i, a := range n.attrs {
		if a.Key == key {
			return i
		}
	}
	return -1
}

func (n *Node) setAttribute(key, value string) {
	if i := n.attributeIndex(key); i >= 0 {
		n.attrs[i].Value = value
		return
	}
	n.attrs = append(n.attrs, Attr{Key: key, Value: value})
}

func (n *Node) removeAttribute(key string) {
	if i := n.attributeIndex(key); i >= 0 {
		n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
	}
}

func (n *Node) childIndex(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// walk visits n and its descendants in document order until fn returns false.
func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}
