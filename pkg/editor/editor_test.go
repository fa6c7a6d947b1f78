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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/timburks/xmledit/pkg/channel"
	"github.com/timburks/xmledit/pkg/document"
	"github.com/timburks/xmledit/pkg/draft"
	"github.com/timburks/xmledit/pkg/recent"
	xmledit "github.com/timburks/xmledit/pkg/types"
)

func newTestEditor(t *testing.T) (*Editor, string) {
	t.Helper()
	dir := t.TempDir()
	tracker := recent.NewTracker(filepath.Join(dir, "recent_files.txt"), nil)
	return NewEditor(filepath.Join(dir, "drafts"), tracker, nil), dir
}

// copyFixture copies a testdata file into dir so that it can be modified.
func copyFixture(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func open(t *testing.T, e *Editor, path string) *Page {
	t.Helper()
	p, err := e.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile(%s) failed: %v", path, err)
	}
	return p
}

func TestBooksScenario(t *testing.T) {
	e, dir := newTestEditor(t)
	p := open(t, e, filepath.Join("testdata", "books.xml"))
	edits := 0
	p.GetChannel().OnEdited(func(channel.Edit) error { edits++; return nil })

	book, err := e.Find("book")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if p.GetPanel().GetNode() != book {
		t.Fatalf("panel shows %v, want the book node", p.GetPanel().GetNode())
	}
	title, ok := p.GetPanel().GetField("title")
	if !ok || title.Value != "Foo" {
		t.Fatalf("title field = %+v, %v, want value Foo", title, ok)
	}

	// fields are tag, text, @id, title
	for i := 0; i < 3; i++ {
		e.MoveFieldCursor(xmledit.MoveDown)
	}
	for i := 0; i < 3; i++ {
		if err := e.BackspaceChar(); err != nil {
			t.Fatalf("BackspaceChar failed: %v", err)
		}
	}
	for _, ch := range "Bar" {
		if err := e.InsertChar(ch); err != nil {
			t.Fatalf("InsertChar failed: %v", err)
		}
	}
	if edits != 6 {
		t.Errorf("NodeEdited fired %d times, want 6", edits)
	}
	if got := p.GetDocument().Find("title").GetText(); got != "Bar" {
		t.Errorf("title = %q, want %q", got, "Bar")
	}

	e.Tick()
	b, err := os.ReadFile(p.GetDrafts().GetDraftPath())
	if err != nil {
		t.Fatalf("draft not readable: %v", err)
	}
	if !strings.Contains(string(b), "<title>Bar</title>") {
		t.Errorf("draft does not contain the edit:\n%s", b)
	}

	written, err := e.WriteFile(filepath.Join(dir, "out.xml"))
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	saved, err := document.Load(written)
	if err != nil {
		t.Fatalf("Load(%s) failed: %v", written, err)
	}
	want, _ := p.GetDocument().Bytes()
	got, _ := saved.Bytes()
	if !bytes.Equal(got, want) {
		t.Errorf("saved tree differs from the edited tree:\n%s\nwant:\n%s", got, want)
	}
}

func TestTypingParentText(t *testing.T) {
	e, _ := newTestEditor(t)
	p := open(t, e, filepath.Join("testdata", "books.xml"))
	book, err := e.Find("book")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	// fields are tag, text, @id, title
	e.MoveFieldCursor(xmledit.MoveDown)
	for _, ch := range " a b " {
		if err := e.InsertChar(ch); err != nil {
			t.Fatalf("InsertChar failed: %v", err)
		}
	}
	if got := book.GetText(); got != "a b" {
		t.Errorf("book text = %q, want %q", got, "a b")
	}
	if field, _ := p.GetPanel().GetField("text"); field.Value != " a b " {
		t.Errorf("text field shows %q, want the typed value", field.Value)
	}
}

func TestRemoveRoot(t *testing.T) {
	e, _ := newTestEditor(t)
	p := open(t, e, filepath.Join("testdata", "books.xml"))
	before, _ := p.GetDocument().Bytes()
	if p.GetSelected() != p.GetDocument().GetRoot() {
		t.Fatal("root is not selected after open")
	}
	err := e.RemoveNode()
	if !errors.Is(err, document.ErrInvalidOperation) {
		t.Errorf("RemoveNode(root) = %v, want ErrInvalidOperation", err)
	}
	after, _ := p.GetDocument().Bytes()
	if !bytes.Equal(before, after) {
		t.Error("tree changed after a rejected root removal")
	}
}

func TestLazyExpansion(t *testing.T) {
	e, _ := newTestEditor(t)
	p := open(t, e, filepath.Join("testdata", "groups.xml"))
	tree := p.GetTree()
	root := p.GetDocument().GetRoot()
	if tree.IsMaterialized(root) {
		t.Fatal("root children materialized before expansion")
	}
	tree.Expand(root)
	tree.Collapse(root)
	tree.Expand(root)
	if got := len(tree.GetVisibleChildren(root)); got != 2 {
		t.Fatalf("root shows %d children, want 2", got)
	}

	groups := root.GetChildren()
	tree.Expand(groups[0])
	tree.Expand(groups[0])
	if got := len(tree.GetVisibleChildren(groups[0])); got != 1 {
		t.Errorf("first group shows %d children, want 1", got)
	}
	if tree.IsMaterialized(groups[1]) {
		t.Error("second group materialized by expanding an identical sibling")
	}
	if got := len(tree.Rows()); got != 4 {
		t.Errorf("%d rows visible, want 4", got)
	}
}

func TestAddAndRemoveNodes(t *testing.T) {
	e, _ := newTestEditor(t)
	p := open(t, e, filepath.Join("testdata", "books.xml"))
	book, _ := e.Find("book")

	author, err := e.AddNode("author", "Ann")
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	if p.GetSelected() != author {
		t.Error("added node is not selected")
	}
	if got := len(p.GetTree().GetVisibleChildren(book)); got != 2 {
		t.Errorf("book shows %d children, want 2", got)
	}
	p.GetTree().Collapse(book)
	p.GetTree().Expand(book)
	if got := len(p.GetTree().GetVisibleChildren(book)); got != 2 {
		t.Errorf("book shows %d children after re-expansion, want 2", got)
	}
	if p.GetSelected() != book {
		t.Error("collapsing did not move the selection to the visible parent")
	}
	p.GetTree().Select(author)
	if !p.HasUnsyncedChanges() {
		t.Error("adding a node did not autosave")
	}

	for _, tag := range []string{"", "two words", "<b>"} {
		if _, err := e.AddNode(tag, ""); err == nil {
			t.Errorf("AddNode(%q) succeeded", tag)
		}
	}

	if err := e.RemoveNode(); err != nil {
		t.Fatalf("RemoveNode failed: %v", err)
	}
	if p.GetSelected() != book {
		t.Error("parent not selected after removal")
	}
	if author.IsAttached() {
		t.Error("removed node still attached")
	}
	if got := len(p.GetTree().GetVisibleChildren(book)); got != 1 {
		t.Errorf("book shows %d children after removal, want 1", got)
	}
}

func TestEditCommands(t *testing.T) {
	e, _ := newTestEditor(t)
	p := open(t, e, filepath.Join("testdata", "books.xml"))
	book, _ := e.Find("book")

	if err := e.SetAttribute("", "x"); !errors.Is(err, document.ErrEmptyKey) {
		t.Errorf("SetAttribute with empty key = %v, want ErrEmptyKey", err)
	}
	if p.HasUnsyncedChanges() {
		t.Error("a rejected edit reached the autosave")
	}
	if err := e.SetAttribute("lang", "en"); err != nil {
		t.Fatalf("SetAttribute failed: %v", err)
	}
	if f, ok := p.GetPanel().GetField("@lang"); !ok || f.Value != "en" {
		t.Errorf("panel field @lang = %+v, %v", f, ok)
	}
	if err := e.RemoveAttribute("id"); err != nil {
		t.Fatalf("RemoveAttribute failed: %v", err)
	}
	if _, ok := book.GetAttribute("id"); ok {
		t.Error("attribute id still present")
	}
	if err := e.SetTag("volume"); err != nil {
		t.Fatalf("SetTag failed: %v", err)
	}
	if book.GetTag() != "volume" {
		t.Errorf("tag = %q, want volume", book.GetTag())
	}
}

func TestPagesAreIsolated(t *testing.T) {
	e, _ := newTestEditor(t)
	first := open(t, e, filepath.Join("testdata", "books.xml"))
	second := open(t, e, filepath.Join("testdata", "groups.xml"))
	if first.GetNumber() == second.GetNumber() {
		t.Fatal("pages share a number")
	}
	crossed := 0
	second.GetChannel().OnEdited(func(channel.Edit) error { crossed++; return nil })

	if err := e.SelectPage(first.GetNumber()); err != nil {
		t.Fatalf("SelectPage failed: %v", err)
	}
	if err := e.SetText("hello"); err != nil {
		t.Fatalf("SetText failed: %v", err)
	}
	if crossed != 0 {
		t.Error("an edit on one page reached another")
	}
	if second.HasUnsyncedChanges() {
		t.Error("an edit on one page autosaved another")
	}
	if first.GetDrafts().GetDraftPath() == second.GetDrafts().GetDraftPath() {
		t.Error("pages share a draft")
	}

	e.SelectPageNext()
	if e.GetActivePage() != second {
		t.Error("SelectPageNext did not move to the second page")
	}
	e.SelectPageNext()
	if e.GetActivePage() != first {
		t.Error("SelectPageNext did not wrap around")
	}
	if list := e.ListPages(); !strings.Contains(list, "books.xml*") || !strings.Contains(list, "groups.xml") {
		t.Errorf("ListPages = %q", list)
	}
	if err := e.SelectPage(999); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("SelectPage(999) = %v, want ErrPageNotFound", err)
	}
}

func TestOpenFailuresKeepState(t *testing.T) {
	e, dir := newTestEditor(t)
	p := open(t, e, filepath.Join("testdata", "books.xml"))

	bad := filepath.Join(dir, "bad.xml")
	os.WriteFile(bad, []byte("<a><b></a>"), 0644)
	err := e.ReadFile(bad)
	var parseError *document.ParseError
	if !errors.As(err, &parseError) {
		t.Errorf("ReadFile(bad) = %v, want a ParseError", err)
	}
	if err := e.ReadFile(filepath.Join(dir, "missing.xml")); !errors.As(err, &parseError) {
		t.Errorf("ReadFile(missing) = %v, want a ParseError", err)
	}
	if e.GetPageCount() != 1 || e.GetActivePage() != p {
		t.Error("a failed open changed the open pages")
	}
	if entries := e.recent.Entries(); len(entries) != 1 {
		t.Errorf("recent files = %v, want only the opened file", entries)
	}
}

func TestDraftDirFailureAbortsOpen(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	os.WriteFile(blocker, []byte("x"), 0644)
	e := NewEditor(filepath.Join(blocker, "drafts"), nil, nil)
	if err := e.ReadFile(filepath.Join("testdata", "books.xml")); !errors.Is(err, draft.ErrDraftDir) {
		t.Errorf("ReadFile = %v, want ErrDraftDir", err)
	}
	if e.GetPageCount() != 0 {
		t.Error("page opened without a draft location")
	}
}

func TestSaveWithoutDocument(t *testing.T) {
	e, _ := newTestEditor(t)
	if _, err := e.WriteFile("x.xml"); !errors.Is(err, draft.ErrNothingToSave) {
		t.Errorf("WriteFile = %v, want ErrNothingToSave", err)
	}
}

func TestCloseWarnsOnDivergence(t *testing.T) {
	e, dir := newTestEditor(t)
	path := copyFixture(t, dir, "books.xml")
	p := open(t, e, path)
	if _, err := e.WriteFile(""); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	e.Find("title")
	e.SetText("Bar")
	draftPath := p.GetDrafts().GetDraftPath()

	if err := e.ClosePage(); err != nil {
		t.Fatalf("ClosePage failed: %v", err)
	}
	if e.GetMessage() == "" {
		t.Error("no warning after closing a diverged draft")
	}
	if _, err := os.Stat(draftPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("draft not deleted on close")
	}
	if e.GetPage() != nil {
		t.Error("closed page is still focused")
	}
	if err := e.ClosePage(); !errors.Is(err, ErrNoPage) {
		t.Errorf("ClosePage with no pages = %v, want ErrNoPage", err)
	}
}

func TestRecover(t *testing.T) {
	e, dir := newTestEditor(t)
	drafts := filepath.Join(dir, "drafts")
	os.MkdirAll(drafts, 0755)
	leftover := filepath.Join(drafts, "2026-10-01.10.00.00-orders.xml")
	os.WriteFile(leftover, []byte("<orders><order>1</order></orders>\n"), 0644)

	if list := e.ListLeftovers(); !strings.Contains(list, "[1] orders.xml") {
		t.Errorf("ListLeftovers = %q", list)
	}
	if err := e.Recover(1); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}
	p := e.GetActivePage()
	if p.GetName() != "orders.xml" {
		t.Errorf("recovered page name = %q", p.GetName())
	}
	if p.GetDocument().Find("order").GetText() != "1" {
		t.Error("recovered content missing")
	}
	if _, err := os.Stat(leftover); !errors.Is(err, os.ErrNotExist) {
		t.Error("leftover draft not deleted after recovery")
	}
	if leftovers, _ := e.Leftovers(); len(leftovers) != 0 {
		t.Errorf("the open page's draft is listed as a leftover: %+v", leftovers)
	}
	if err := e.Recover(1); !errors.Is(err, ErrNoLeftover) {
		t.Errorf("Recover(1) = %v, want ErrNoLeftover", err)
	}
}

func TestSourceChanged(t *testing.T) {
	e, dir := newTestEditor(t)
	path := copyFixture(t, dir, "books.xml")
	open(t, e, path)

	e.SourceChanged(path)
	if e.GetMessage() != "" {
		t.Errorf("warning for an unchanged file: %q", e.GetMessage())
	}
	e.SetText("x")
	if _, err := e.WriteFile(""); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	e.SourceChanged(path)
	if e.GetMessage() != "" {
		t.Errorf("warning for our own save: %q", e.GetMessage())
	}
	os.WriteFile(path, []byte("<catalog/>\n"), 0644)
	e.SourceChanged(path)
	if !strings.Contains(e.GetMessage(), "books.xml") {
		t.Errorf("message = %q, want a warning about books.xml", e.GetMessage())
	}
	if paths := e.WatchedPaths(); len(paths) != 1 || paths[0] != path {
		t.Errorf("WatchedPaths = %v", paths)
	}
}

func TestNewDocument(t *testing.T) {
	e, dir := newTestEditor(t)
	if err := e.NewDocument("notes"); err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}
	if _, err := e.WriteFile(""); !errors.Is(err, ErrNoPath) {
		t.Errorf("WriteFile of untitled document = %v, want ErrNoPath", err)
	}
	written, err := e.WriteFile(filepath.Join(dir, "notes"))
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if filepath.Base(written) != "notes.xml" {
		t.Errorf("written = %q, want notes.xml", written)
	}
	if e.GetActivePage().GetName() != "notes.xml" {
		t.Errorf("page name = %q", e.GetActivePage().GetName())
	}
}

type testDisplay struct {
	cells map[xmledit.Point]rune
}

func (d *testDisplay) SetCell(col int, row int, ch rune, fg xmledit.Color, bg xmledit.Color) {
	d.cells[xmledit.Point{Row: row, Col: col}] = ch
}

func (d *testDisplay) line(row, cols int) string {
	var b strings.Builder
	for col := 0; col < cols; col++ {
		if ch, ok := d.cells[xmledit.Point{Row: row, Col: col}]; ok {
			b.WriteRune(ch)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func TestRender(t *testing.T) {
	e, _ := newTestEditor(t)
	p := open(t, e, filepath.Join("testdata", "books.xml"))
	e.Find("title")
	d := &testDisplay{cells: make(map[xmledit.Point]rune)}
	p.Render(d, xmledit.Rect{Size: xmledit.Size{Rows: 5, Cols: 60}}, false)

	tree := []string{"- catalog", "  - book", "      title: Foo"}
	for row, want := range tree {
		if got := d.line(row, 30); got != want {
			t.Errorf("tree row %d = %q, want %q", row, got, want)
		}
	}
	if got := d.line(0, 60); !strings.HasSuffix(got, "tag  title") {
		t.Errorf("panel row 0 = %q", got)
	}
}
