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

package draft

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/timburks/xmledit/pkg/channel"
	"github.com/timburks/xmledit/pkg/document"
)

const books = `<?xml version="1.0" encoding="UTF-8"?>
<catalog>
   <book id="1">
      <title>Foo</title>
   </book>
</catalog>
`

var clock = time.Date(2026, 10, 19, 14, 30, 5, 0, time.Local)

type fixture struct {
	dir      string
	source   string
	doc      *document.Document
	manager  *Manager
	warnings []string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir()}
	f.source = filepath.Join(f.dir, "books.xml")
	if err := os.WriteFile(f.source, []byte(books), 0644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}
	doc, err := document.Load(f.source)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	f.doc = doc
	f.manager = NewManager(filepath.Join(f.dir, "drafts"), func(message string) {
		f.warnings = append(f.warnings, message)
	}, nil)
	f.manager.SetClock(func() time.Time { return clock })
	if err := f.manager.Open(doc, f.source); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return f
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) failed: %v", path, err)
	}
	return string(b)
}

func TestDraftPath(t *testing.T) {
	f := setup(t)
	want := filepath.Join(f.dir, "drafts", "2026-10-19.14.30.05-books.xml")
	if got := f.manager.GetDraftPath(); got != want {
		t.Errorf("draft path = %q, want %q", got, want)
	}
	if f.manager.GetState() != StateLoaded {
		t.Errorf("state = %d, want StateLoaded", f.manager.GetState())
	}
	if f.manager.HasUnsyncedChanges() {
		t.Error("a freshly opened document has unsynced changes")
	}
}

func TestDraftPathCollision(t *testing.T) {
	f := setup(t)
	other := NewManager(filepath.Join(f.dir, "drafts"), nil, nil)
	other.SetClock(func() time.Time { return clock })
	if err := other.Open(f.doc, f.source); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	want := filepath.Join(f.dir, "drafts", "2026-10-19.14.30.06-books.xml")
	if got := other.GetDraftPath(); got != want {
		t.Errorf("second draft path = %q, want %q", got, want)
	}
}

func TestDraftDirFailureAbortsOpen(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	os.WriteFile(blocker, []byte("x"), 0644)
	m := NewManager(filepath.Join(blocker, "drafts"), nil, nil)
	err := m.Open(document.New("root"), "")
	if !errors.Is(err, ErrDraftDir) {
		t.Errorf("Open = %v, want ErrDraftDir", err)
	}
	if m.GetState() != StateUnopened {
		t.Errorf("state = %d, want StateUnopened", m.GetState())
	}
}

func TestEditWritesDraft(t *testing.T) {
	f := setup(t)
	c := channel.New()
	c.OnEdited(func(e channel.Edit) error {
		return f.doc.SetText(e.Node, e.Value)
	})
	f.manager.Subscribe(c)

	title := f.doc.Find("title")
	if err := c.Edited(channel.Edit{Node: title, Field: channel.FieldText, Value: "Bar"}); err != nil {
		t.Fatalf("Edited failed: %v", err)
	}
	if content := readFile(t, f.manager.GetDraftPath()); !strings.Contains(content, "<title>Bar</title>") {
		t.Errorf("draft does not reflect the edit:\n%s", content)
	}
	if !f.manager.HasUnsyncedChanges() {
		t.Error("unsynced flag not set after autosave")
	}
	if f.manager.GetState() != StateEditing {
		t.Errorf("state = %d, want StateEditing", f.manager.GetState())
	}
}

func TestTick(t *testing.T) {
	f := setup(t)
	if err := f.manager.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if content := readFile(t, f.manager.GetDraftPath()); content != "" {
		t.Errorf("idle tick wrote a draft:\n%s", content)
	}

	// an edit whose snapshot failed is retried by the next tick
	f.doc.SetText(f.doc.Find("title"), "Bar")
	f.doc.SetTag(f.doc.Find("book"), "bad tag")
	f.manager.Edited()
	if f.manager.GetState() != StateAutosavePending {
		t.Errorf("state = %d, want StateAutosavePending", f.manager.GetState())
	}
	f.doc.SetTag(f.doc.Find("bad tag"), "book")
	if err := f.manager.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if content := readFile(t, f.manager.GetDraftPath()); !strings.Contains(content, "<title>Bar</title>") {
		t.Errorf("tick did not write the draft:\n%s", content)
	}
	if f.manager.IsDirty() {
		t.Error("manager still dirty after a successful tick")
	}
}

func TestSave(t *testing.T) {
	f := setup(t)
	f.doc.SetText(f.doc.Find("title"), "Bar")
	f.manager.Edited()

	path, err := f.manager.Save(filepath.Join(f.dir, "out"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if want := filepath.Join(f.dir, "out.xml"); path != want {
		t.Errorf("saved path = %q, want %q", path, want)
	}
	saved, err := document.Load(path)
	if err != nil {
		t.Fatalf("Load of saved file failed: %v", err)
	}
	if got := saved.Find("title").GetText(); got != "Bar" {
		t.Errorf("saved title = %q, want %q", got, "Bar")
	}
	if f.manager.HasUnsyncedChanges() {
		t.Error("unsynced flag still set after save")
	}
	if f.manager.GetSavePath() != path {
		t.Errorf("save path = %q, want %q", f.manager.GetSavePath(), path)
	}

	if path, _ := f.manager.Save(filepath.Join(f.dir, "Upper.XML")); filepath.Base(path) != "Upper.XML" {
		t.Errorf("suffix added to %q", path)
	}
}

func TestSaveWithoutDocument(t *testing.T) {
	m := NewManager(t.TempDir(), nil, nil)
	if _, err := m.Save("x.xml"); !errors.Is(err, ErrNothingToSave) {
		t.Errorf("Save = %v, want ErrNothingToSave", err)
	}
}

func TestCloseWarnsOnDivergence(t *testing.T) {
	f := setup(t)
	if _, err := f.manager.Save(filepath.Join(f.dir, "saved.xml")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	f.doc.SetText(f.doc.Find("title"), "Bar")
	f.manager.Edited()
	draftPath := f.manager.GetDraftPath()

	if !f.manager.Close() {
		t.Error("Close did not report divergence")
	}
	if len(f.warnings) != 1 {
		t.Errorf("warnings = %v, want one", f.warnings)
	}
	if _, err := os.Stat(draftPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("draft not deleted: %v", err)
	}
	if f.manager.GetState() != StateClosed {
		t.Errorf("state = %d, want StateClosed", f.manager.GetState())
	}
}

func TestCloseWithoutDivergence(t *testing.T) {
	f := setup(t)
	if _, err := f.manager.Save(filepath.Join(f.dir, "saved.xml")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	title := f.doc.Find("title")
	f.doc.SetText(title, "Bar")
	f.manager.Edited()
	f.doc.SetText(title, "Foo")
	f.manager.Edited()

	if f.manager.Close() {
		t.Error("Close reported divergence for a draft equal to the saved file")
	}
	if len(f.warnings) != 0 {
		t.Errorf("warnings = %v, want none", f.warnings)
	}
}

func TestClosedManagerIgnoresTicks(t *testing.T) {
	f := setup(t)
	f.manager.Close()
	f.doc.SetText(f.doc.Find("title"), "Bar")
	f.manager.Edited()
	if err := f.manager.Tick(); err != nil {
		t.Errorf("Tick after Close = %v", err)
	}
	if _, err := os.Stat(f.manager.GetDraftPath()); !errors.Is(err, os.ErrNotExist) {
		t.Error("closed manager wrote a draft")
	}
	if f.manager.Close() {
		t.Error("second Close reported divergence")
	}
	if _, err := f.manager.Save(filepath.Join(f.dir, "late.xml")); err == nil {
		t.Error("Save after Close succeeded")
	}
}

func TestLeftovers(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	write("2026-10-18.09.00.00-old.xml", "<a/>")
	write("2026-10-19.09.00.00-new-file.xml", "<b/>")
	write("2026-10-19.10.00.00-empty.xml", "")
	write("notes.txt", "not a draft")

	leftovers, err := Leftovers(dir)
	if err != nil {
		t.Fatalf("Leftovers failed: %v", err)
	}
	if len(leftovers) != 2 {
		t.Fatalf("leftover count = %d, want 2: %+v", len(leftovers), leftovers)
	}
	if leftovers[0].Original != "new-file.xml" || leftovers[1].Original != "old.xml" {
		t.Errorf("leftovers = %+v, want new-file.xml then old.xml", leftovers)
	}
	if missing, err := Leftovers(filepath.Join(dir, "missing")); err != nil || len(missing) != 0 {
		t.Errorf("Leftovers(missing) = %v, %v", missing, err)
	}
}

func TestOpenRecovered(t *testing.T) {
	dir := t.TempDir()
	doc := document.New("recovered")
	m := NewManager(dir, nil, nil)
	m.SetClock(func() time.Time { return clock })
	if err := m.OpenRecovered(doc, "orders.xml"); err != nil {
		t.Fatalf("OpenRecovered failed: %v", err)
	}
	if !strings.HasSuffix(m.GetDraftPath(), "-orders.xml") {
		t.Errorf("draft path = %q", m.GetDraftPath())
	}
	if content := readFile(t, m.GetDraftPath()); !strings.Contains(content, "<recovered>") {
		t.Errorf("recovered content not written to the draft:\n%s", content)
	}
	if m.GetSavePath() != "" {
		t.Errorf("recovered document has a save path %q", m.GetSavePath())
	}
}
