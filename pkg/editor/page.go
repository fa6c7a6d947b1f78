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
	"log/slog"
	"path/filepath"

	"github.com/timburks/xmledit/pkg/channel"
	"github.com/timburks/xmledit/pkg/document"
	"github.com/timburks/xmledit/pkg/draft"
	"github.com/timburks/xmledit/pkg/integrity"
	xmledit "github.com/timburks/xmledit/pkg/types"
)

// This is the number of the last page created. Use it to uniquely number pages.
var lastPageNumber = 0

// A Page holds one open document with its own channel, draft, tree view and panel.
type Page struct {
	number      int
	doc         *document.Document
	channel     *channel.Channel
	drafts      *draft.Manager
	tree        *TreeView
	panel       *Panel
	defaultName string           // file name offered for documents without a save path
	digest      integrity.Digest // content of the save path when last read or written
	logger      *slog.Logger
}

// newPage wires a document to a new channel. Edits are applied to the
// document first, then autosaved, then shown in the panel.
func newPage(doc *document.Document, drafts *draft.Manager, logger *slog.Logger) *Page {
	lastPageNumber++
	p := &Page{
		number:  lastPageNumber,
		doc:     doc,
		channel: channel.New(),
		drafts:  drafts,
		logger:  logger,
	}
	p.channel.OnEdited(p.apply)
	drafts.Subscribe(p.channel)
	p.panel = NewPanel(p.channel)
	p.channel.OnEdited(p.panel.Refresh)
	p.tree = NewTreeView(doc, p.channel)
	return p
}

// apply performs an edit on the document.
func (p *Page) apply(e channel.Edit) error {
	switch e.Field {
	case channel.FieldTag:
		return p.doc.SetTag(e.Node, e.Value)
	case channel.FieldText:
		return p.doc.SetText(e.Node, e.Value)
	case channel.FieldAttribute:
		return p.doc.SetAttribute(e.Node, e.Key, e.Value)
	case channel.FieldAttributeRemoved:
		return p.doc.RemoveAttribute(e.Node, e.Key)
	default:
		return fmt.Errorf("%w: unknown field %d", document.ErrInvalidOperation, e.Field)
	}
}

func (p *Page) GetNumber() int {
	return p.number
}

// GetName returns the file name shown for the page.
func (p *Page) GetName() string {
	if path := p.drafts.GetSavePath(); path != "" {
		return filepath.Base(path)
	}
	if p.defaultName != "" {
		return p.defaultName
	}
	return draft.UntitledName
}

func (p *Page) GetDocument() *document.Document {
	return p.doc
}

func (p *Page) GetChannel() *channel.Channel {
	return p.channel
}

func (p *Page) GetDrafts() *draft.Manager {
	return p.drafts
}

func (p *Page) GetTree() *TreeView {
	return p.tree
}

func (p *Page) GetPanel() *Panel {
	return p.panel
}

func (p *Page) GetSelected() *document.Node {
	return p.tree.GetSelected()
}

func (p *Page) GetSavePath() string {
	return p.drafts.GetSavePath()
}

func (p *Page) HasUnsyncedChanges() bool {
	return p.drafts.HasUnsyncedChanges()
}

// Edit publishes a change to the selected node.
func (p *Page) Edit(field int, key, value string) error {
	n := p.GetSelected()
	if n == nil {
		return ErrNoSelection
	}
	return p.channel.Edited(channel.Edit{Node: n, Field: field, Key: key, Value: value})
}

// AddNode appends a new child to the node named in r and selects it.
func (p *Page) AddNode(r AddNodeRequest) (*document.Node, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	child, err := p.doc.AddChild(r.Parent, r.Tag, r.Text)
	if err != nil {
		return nil, err
	}
	p.tree.NodeAdded(r.Parent, child)
	p.drafts.Edited()
	p.logger.Debug("node added", "page", p.number, "path", p.doc.Path(child))
	return child, nil
}

// RemoveNode removes n and its subtree and selects its parent.
func (p *Page) RemoveNode(n *document.Node) error {
	if n == nil {
		return ErrNoSelection
	}
	parent := n.GetParent()
	path := p.doc.Path(n)
	if err := p.doc.RemoveNode(n); err != nil {
		return err
	}
	p.tree.NodeRemoved(parent, n)
	p.drafts.Edited()
	p.logger.Debug("node removed", "page", p.number, "path", path)
	return nil
}

// recordDigest remembers the content of the save path so that changes made
// by other programs can be told apart from our own writes.
func (p *Page) recordDigest() {
	path := p.GetSavePath()
	if path == "" {
		return
	}
	if d, err := integrity.FileDigest(path); err == nil {
		p.digest = d
	}
}

// changedOnDisk reports whether the save path no longer holds what we last read or wrote.
func (p *Page) changedOnDisk() bool {
	path := p.GetSavePath()
	if path == "" {
		return false
	}
	d, err := integrity.FileDigest(path)
	if err != nil {
		return true
	}
	return d != p.digest
}

// close deletes the draft and closes the channel. It reports whether
// the draft had diverged from the saved file.
func (p *Page) close() bool {
	diverged := p.drafts.Close()
	p.channel.Close()
	return diverged
}

func (p *Page) Render(d xmledit.Display, r xmledit.Rect, fieldsFocused bool) {
	treeRect := r
	treeRect.Size.Cols = r.Size.Cols / 2
	panelRect := r
	panelRect.Origin.Col += treeRect.Size.Cols + 1
	panelRect.Size.Cols = r.Size.Cols - treeRect.Size.Cols - 1
	p.tree.Render(d, treeRect)
	for row := 0; row < r.Size.Rows; row++ {
		d.SetCell(r.Origin.Col+treeRect.Size.Cols, r.Origin.Row+row, '│', xmledit.ColorBlue, xmledit.ColorBlack)
	}
	p.panel.Render(d, panelRect, fieldsFocused)
}
