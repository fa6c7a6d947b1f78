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

package channel

import (
	"errors"
	"reflect"
	"testing"

	"github.com/timburks/xmledit/pkg/document"
)

func TestSelectedDeliveryOrder(t *testing.T) {
	d := document.New("root")
	c := New()
	var calls []string
	c.OnSelected(func(n *document.Node) { calls = append(calls, "first:"+n.GetTag()) })
	c.OnSelected(func(n *document.Node) { calls = append(calls, "second:"+n.GetTag()) })

	c.Selected(d.GetRoot())

	want := []string{"first:root", "second:root"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestLateSubscriberMissesEarlierMessages(t *testing.T) {
	d := document.New("root")
	c := New()
	c.Selected(d.GetRoot())
	count := 0
	c.OnSelected(func(n *document.Node) { count++ })
	if count != 0 {
		t.Errorf("late subscriber received %d replayed messages", count)
	}
	c.Selected(d.GetRoot())
	if count != 1 {
		t.Errorf("subscriber received %d messages, want 1", count)
	}
}

func TestEditRejectionStopsDelivery(t *testing.T) {
	d := document.New("root")
	c := New()
	rejected := errors.New("rejected")
	var order []int
	c.OnEdited(func(e Edit) error { order = append(order, 1); return nil })
	c.OnEdited(func(e Edit) error { order = append(order, 2); return rejected })
	c.OnEdited(func(e Edit) error { order = append(order, 3); return nil })

	err := c.Edited(Edit{Node: d.GetRoot(), Field: FieldText, Value: "x"})
	if !errors.Is(err, rejected) {
		t.Errorf("Edited = %v, want %v", err, rejected)
	}
	if !reflect.DeepEqual(order, []int{1, 2}) {
		t.Errorf("delivery order = %v, want [1 2]", order)
	}
}

func TestChannelsAreIndependent(t *testing.T) {
	d := document.New("root")
	a, b := New(), New()
	if a.GetID() == b.GetID() {
		t.Error("two channels share an id")
	}
	received := 0
	b.OnSelected(func(n *document.Node) { received++ })
	a.Selected(d.GetRoot())
	if received != 0 {
		t.Error("message crossed between channels")
	}
}

func TestClose(t *testing.T) {
	d := document.New("root")
	c := New()
	received := 0
	c.OnSelected(func(n *document.Node) { received++ })
	c.OnEdited(func(e Edit) error { received++; return nil })
	c.Close()
	c.Selected(d.GetRoot())
	if err := c.Edited(Edit{Node: d.GetRoot()}); err != nil {
		t.Errorf("Edited on closed channel = %v", err)
	}
	c.OnSelected(func(n *document.Node) { received++ })
	c.Selected(d.GetRoot())
	if received != 0 {
		t.Errorf("closed channel delivered %d messages", received)
	}
	if !c.IsClosed() {
		t.Error("IsClosed = false after Close")
	}
}
