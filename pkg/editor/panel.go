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
	"strings"

	"github.com/timburks/xmledit/pkg/channel"
	"github.com/timburks/xmledit/pkg/document"
	xmledit "github.com/timburks/xmledit/pkg/types"
)

// A Panel shows the fields of the selected node and turns typing into edits.
type Panel struct {
	channel *channel.Channel
	node    *document.Node
	fields  []xmledit.Field
	cursor  int
}

// NewPanel creates a panel that follows selections published on c.
func NewPanel(c *channel.Channel) *Panel {
	p := &Panel{channel: c}
	c.OnSelected(p.Show)
	return p
}

// Show replaces the displayed fields with those of n.
func (p *Panel) Show(n *document.Node) {
	if n != p.node {
		p.cursor = 0
	}
	p.node = n
	p.fields = fieldsOf(n)
	if p.cursor >= len(p.fields) {
		p.cursor = len(p.fields) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// Refresh rereads the fields of the shown node after an edit.
func (p *Panel) Refresh(channel.Edit) error {
	if p.node != nil {
		p.Show(p.node)
	}
	return nil
}

func fieldsOf(n *document.Node) []xmledit.Field {
	if n == nil || !n.IsAttached() {
		return nil
	}
	fields := []xmledit.Field{
		{Kind: xmledit.FieldTag, Label: "tag", Value: n.GetTag(), Node: n, Editable: true},
		{Kind: xmledit.FieldText, Label: "text", Value: n.GetText(), Node: n, Editable: true},
	}
	for _, attr := range n.GetAttributes() {
		fields = append(fields, xmledit.Field{
			Kind:     xmledit.FieldAttribute,
			Label:    "@" + attr.Key,
			Key:      attr.Key,
			Value:    attr.Value,
			Node:     n,
			Editable: true,
		})
	}
	for _, child := range n.GetChildren() {
		f := xmledit.Field{Kind: xmledit.FieldChild, Label: child.GetTag(), Node: child}
		if child.HasChildren() {
			f.Value = fmt.Sprintf("(%d children)", len(child.GetChildren()))
		} else {
			f.Value = child.GetText()
			f.Editable = true
		}
		fields = append(fields, f)
	}
	return fields
}

func (p *Panel) GetNode() *document.Node {
	return p.node
}

func (p *Panel) GetFields() []xmledit.Field {
	return p.fields
}

func (p *Panel) GetCursor() int {
	return p.cursor
}

// GetField returns the field whose label is label, if shown.
func (p *Panel) GetField(label string) (xmledit.Field, bool) {
	for _, f := range p.fields {
		if f.Label == label {
			return f, true
		}
	}
	return xmledit.Field{}, false
}

func (p *Panel) MoveCursor(direction int) {
	switch direction {
	case xmledit.MoveUp:
		if p.cursor > 0 {
			p.cursor--
		}
	case xmledit.MoveDown:
		if p.cursor < len(p.fields)-1 {
			p.cursor++
		}
	}
}

// InsertChar appends ch to the focused field and publishes the edit.
func (p *Panel) InsertChar(ch rune) error {
	f, ok := p.focused()
	if !ok {
		return nil
	}
	return p.setValue(f, f.Value+string(ch))
}

// BackspaceChar removes the last character of the focused field.
func (p *Panel) BackspaceChar() error {
	f, ok := p.focused()
	if !ok || f.Value == "" {
		return nil
	}
	runes := []rune(f.Value)
	return p.setValue(f, string(runes[:len(runes)-1]))
}

func (p *Panel) focused() (xmledit.Field, bool) {
	if p.cursor < 0 || p.cursor >= len(p.fields) || !p.fields[p.cursor].Editable {
		return xmledit.Field{}, false
	}
	return p.fields[p.cursor], true
}

// setValue publishes a change to one field. A rejected edit leaves the
// field showing the node's current value.
func (p *Panel) setValue(f xmledit.Field, value string) error {
	edit := channel.Edit{Node: f.Node, Value: value}
	switch f.Kind {
	case xmledit.FieldTag:
		edit.Field = channel.FieldTag
	case xmledit.FieldText, xmledit.FieldChild:
		edit.Field = channel.FieldText
	case xmledit.FieldAttribute:
		edit.Field = channel.FieldAttribute
		edit.Key = f.Key
	}
	err := p.channel.Edited(edit)
	p.Show(p.node)
	// text of a parent is stored trimmed; keep what was typed so that a
	// space can be followed by more text
	if err == nil && p.cursor < len(p.fields) {
		shown := &p.fields[p.cursor]
		if shown.Kind == f.Kind && shown.Node == f.Node && shown.Value == strings.TrimSpace(value) {
			shown.Value = value
		}
	}
	return err
}

func (p *Panel) Render(d xmledit.Display, r xmledit.Rect, focused bool) {
	labelWidth := 0
	for _, f := range p.fields {
		if len(f.Label) > labelWidth {
			labelWidth = len(f.Label)
		}
	}
	if labelWidth > r.Size.Cols/3 {
		labelWidth = r.Size.Cols / 3
	}
	first := 0
	if p.cursor >= r.Size.Rows {
		first = p.cursor - r.Size.Rows + 1
	}
	for i := 0; i < r.Size.Rows && first+i < len(p.fields); i++ {
		f := p.fields[first+i]
		line := fmt.Sprintf("%-*s %s", labelWidth, f.Label, f.Value)
		fg, bg := xmledit.ColorWhite, xmledit.ColorBlack
		if !f.Editable {
			fg = xmledit.ColorBlue
		}
		if focused && first+i == p.cursor {
			fg, bg = xmledit.ColorBlack, xmledit.ColorYellow
		}
		drawText(d, r.Origin.Col, r.Origin.Row+i, r.Size.Cols, line, fg, bg)
	}
}
