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

package editor

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/timburks/xmledit/pkg/channel"
	"github.com/timburks/xmledit/pkg/document"
	xmledit "github.com/timburks/xmledit/pkg/types"
)

// A TreeView shows a document as an outline of its elements.
// Children of a node are materialized the first time it is expanded and
// kept, keyed by node id, for later expansions.
type TreeView struct {
	doc      *document.Document
	channel  *channel.Channel
	children map[int][]*document.Node // materialized children by node id
	expanded map[int]bool             // expansion state by node id
	cursor   int                      // index of the selected row
	offset   int                      // first visible row
	selected *document.Node
}

func NewTreeView(doc *document.Document, c *channel.Channel) *TreeView {
	return &TreeView{
		doc:      doc,
		channel:  c,
		children: make(map[int][]*document.Node),
		expanded: make(map[int]bool),
	}
}

// Expand shows the children of n, materializing them on first use.
func (t *TreeView) Expand(n *document.Node) {
	if n == nil || !t.doc.HasChildren(n) {
		return
	}
	if _, ok := t.children[n.GetID()]; !ok {
		t.children[n.GetID()] = t.doc.GetChildren(n)
	}
	t.expanded[n.GetID()] = true
}

func (t *TreeView) Collapse(n *document.Node) {
	if n == nil {
		return
	}
	delete(t.expanded, n.GetID())
	t.syncCursor()
}

func (t *TreeView) IsExpanded(n *document.Node) bool {
	return n != nil && t.expanded[n.GetID()]
}

// IsMaterialized reports whether the children of n have been built.
func (t *TreeView) IsMaterialized(n *document.Node) bool {
	_, ok := t.children[n.GetID()]
	return ok
}

// GetVisibleChildren returns the materialized children of n.
func (t *TreeView) GetVisibleChildren(n *document.Node) []*document.Node {
	return t.children[n.GetID()]
}

// NodeAdded shows a child that was added to parent and selects it.
func (t *TreeView) NodeAdded(parent, child *document.Node) {
	if list, ok := t.children[parent.GetID()]; ok {
		for _, existing := range list {
			if existing == child {
				t.Select(child)
				return
			}
		}
		t.children[parent.GetID()] = append(list, child)
	}
	t.Expand(parent)
	t.Select(child)
}

// NodeRemoved drops a removed subtree from the view and selects its parent.
func (t *TreeView) NodeRemoved(parent, n *document.Node) {
	if list, ok := t.children[parent.GetID()]; ok {
		kept := list[:0]
		for _, child := range list {
			if child != n {
				kept = append(kept, child)
			}
		}
		t.children[parent.GetID()] = kept
	}
	t.forget(n)
	if len(t.children[parent.GetID()]) == 0 {
		delete(t.expanded, parent.GetID())
	}
	t.Select(parent)
}

func (t *TreeView) forget(n *document.Node) {
	for _, child := range t.children[n.GetID()] {
		t.forget(child)
	}
	delete(t.children, n.GetID())
	delete(t.expanded, n.GetID())
}

// Rows flattens the visible part of the tree.
func (t *TreeView) Rows() []xmledit.Row {
	var rows []xmledit.Row
	var add func(n *document.Node, depth int)
	add = func(n *document.Node, depth int) {
		expanded := t.expanded[n.GetID()]
		rows = append(rows, xmledit.Row{
			Node:        n,
			Depth:       depth,
			Expanded:    expanded,
			HasChildren: t.doc.HasChildren(n),
		})
		if expanded {
			for _, child := range t.children[n.GetID()] {
				add(child, depth+1)
			}
		}
	}
	if root := t.doc.GetRoot(); root != nil {
		add(root, 0)
	}
	return rows
}

func (t *TreeView) GetCursor() int {
	return t.cursor
}

func (t *TreeView) GetSelected() *document.Node {
	return t.selected
}

// MoveCursor moves the selection one row up or down.
func (t *TreeView) MoveCursor(direction int) {
	rows := t.Rows()
	if len(rows) == 0 {
		return
	}
	cursor := t.cursor
	switch direction {
	case xmledit.MoveUp:
		if cursor > 0 {
			cursor--
		}
	case xmledit.MoveDown:
		if cursor < len(rows)-1 {
			cursor++
		}
	}
	t.Select(rows[cursor].Node)
}

// Select makes n the selected node, expanding its ancestors so it is
// visible, and publishes the selection.
func (t *TreeView) Select(n *document.Node) error {
	if n == nil || !n.IsAttached() || t.doc.GetNode(n.GetID()) != n {
		return fmt.Errorf("%w: cannot select", document.ErrNodeNotFound)
	}
	var ancestors []*document.Node
	for p := n.GetParent(); p != nil; p = p.GetParent() {
		ancestors = append(ancestors, p)
	}
	for i := len(ancestors) - 1; i >= 0; i-- {
		t.Expand(ancestors[i])
	}
	t.selected = n
	t.syncCursor()
	t.channel.Selected(n)
	return nil
}

// syncCursor moves the cursor to the selected row, or to the nearest
// visible ancestor if the selected node was collapsed away.
func (t *TreeView) syncCursor() {
	rows := t.Rows()
	for n := t.selected; n != nil; n = n.GetParent() {
		for i, row := range rows {
			if row.Node == n {
				t.cursor = i
				if n != t.selected {
					t.selected = n
					t.channel.Selected(n)
				}
				return
			}
		}
	}
	t.cursor = 0
}

// Scroll keeps the cursor within a window of height rows and returns the offset.
func (t *TreeView) Scroll(height int) int {
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if height > 0 && t.cursor >= t.offset+height {
		t.offset = t.cursor - height + 1
	}
	return t.offset
}

// Label returns the text shown for a node in the tree.
func Label(n *document.Node) string {
	label := n.GetTag()
	if text := n.GetText(); text != "" && !n.HasChildren() {
		label += ": " + text
	}
	return label
}

func (t *TreeView) Render(d xmledit.Display, r xmledit.Rect) {
	rows := t.Rows()
	offset := t.Scroll(r.Size.Rows)
	for i := 0; i < r.Size.Rows && offset+i < len(rows); i++ {
		row := rows[offset+i]
		marker := "  "
		if row.HasChildren {
			if row.Expanded {
				marker = "- "
			} else {
				marker = "+ "
			}
		}
		line := fmt.Sprintf("%*s%s%s", row.Depth*2, "", marker, Label(row.Node))
		fg, bg := xmledit.ColorWhite, xmledit.ColorBlack
		if offset+i == t.cursor {
			fg, bg = xmledit.ColorBlack, xmledit.ColorCyan
		}
		drawText(d, r.Origin.Col, r.Origin.Row+i, r.Size.Cols, line, fg, bg)
	}
}

// drawText writes s at (col, row), clipped to width cells.
func drawText(d xmledit.Display, col, row, width int, s string, fg, bg xmledit.Color) {
	x := 0
	for _, ch := range s {
		if ch == '\n' || ch == '\t' {
			ch = ' '
		}
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		if x+w > width {
			break
		}
		d.SetCell(col+x, row, ch, fg, bg)
		x += w
	}
}
