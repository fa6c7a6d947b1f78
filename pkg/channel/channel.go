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

// Package channel carries selection and edit notifications between the
// parts of one open document. Each open document owns its own Channel,
// so documents open side by side never see each other's messages.
// Delivery is synchronous: every subscriber runs, in subscription order,
// before the publishing call returns. Nothing is queued or replayed.
package channel

import (
	"github.com/google/uuid"

	"github.com/timburks/xmledit/pkg/document"
)

// Fields that an edit can change.
const (
	FieldTag = iota
	FieldText
	FieldAttribute
	FieldAttributeRemoved
)

// An Edit describes one change made in an editor panel.
type Edit struct {
	Node  *document.Node
	Field int
	Key   string // attribute key for FieldAttribute and FieldAttributeRemoved
	Value string
}

// A SelectFunc receives NodeSelected messages.
type SelectFunc func(n *document.Node)

// An EditFunc receives NodeEdited messages. Returning an error rejects the
// edit: later subscribers are skipped and the publisher gets the error.
type EditFunc func(e Edit) error

// A Channel delivers messages for one document.
type Channel struct {
	id       uuid.UUID
	selected []SelectFunc
	edited   []EditFunc
	closed   bool
}

func New() *Channel {
	return &Channel{id: uuid.New()}
}

// GetID returns the channel's namespace id.
func (c *Channel) GetID() uuid.UUID {
	return c.id
}

func (c *Channel) IsClosed() bool {
	return c.closed
}

// OnSelected subscribes fn to NodeSelected messages.
func (c *Channel) OnSelected(fn SelectFunc) {
	if c.closed {
		return
	}
	c.selected = append(c.selected, fn)
}

// OnEdited subscribes fn to NodeEdited messages.
func (c *Channel) OnEdited(fn EditFunc) {
	if c.closed {
		return
	}
	c.edited = append(c.edited, fn)
}

// Selected publishes a NodeSelected message.
func (c *Channel) Selected(n *document.Node) {
	if c.closed {
		return
	}
	for _, fn := range c.selected {
		fn(n)
	}
}

// Edited publishes a NodeEdited message.
func (c *Channel) Edited(e Edit) error {
	if c.closed {
		return nil
	}
	for _, fn := range c.edited {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// Close drops all subscribers. Later publishes are ignored.
func (c *Channel) Close() {
	c.closed = true
	c.selected = nil
	c.edited = nil
}
