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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/timburks/xmledit/pkg/channel"
	"github.com/timburks/xmledit/pkg/document"
	"github.com/timburks/xmledit/pkg/draft"
	"github.com/timburks/xmledit/pkg/recent"
	xmledit "github.com/timburks/xmledit/pkg/types"
)

// The Editor manages the open documents, each in its own page.
// There is typically only one editor in an xmledit instance.
type Editor struct {
	pages     map[int]*Page // all open pages by number
	focused   *Page         // page shown on screen
	draftsDir string
	indent    string
	recent    *recent.Tracker
	logger    *slog.Logger
	message   string   // status message
	warnings  []string // warnings not yet taken by the caller
}

// NewEditor creates an editor that keeps drafts in draftsDir and records
// opened files with tracker. tracker may be nil.
func NewEditor(draftsDir string, tracker *recent.Tracker, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{
		pages:     make(map[int]*Page),
		draftsDir: draftsDir,
		indent:    document.DefaultIndent,
		recent:    tracker,
		logger:    logger,
	}
}

// SetIndent sets the indentation used by documents opened afterwards.
func (e *Editor) SetIndent(indent string) {
	e.indent = indent
}

func (e *Editor) newDrafts() *draft.Manager {
	return draft.NewManager(e.draftsDir, e.Warn, e.logger)
}

// addPage makes p the focused page and selects its root.
func (e *Editor) addPage(p *Page) {
	e.pages[p.number] = p
	e.focused = p
	if root := p.doc.GetRoot(); root != nil {
		p.tree.Select(root)
	}
}

// ReadFile opens the document at path in a new page. On failure the
// editor keeps its previous state.
func (e *Editor) ReadFile(path string) error {
	_, err := e.OpenFile(path)
	return err
}

// OpenFile is ReadFile returning the new page.
func (e *Editor) OpenFile(path string) (*Page, error) {
	doc, err := document.Load(path)
	if err != nil {
		e.logger.Warn("open failed", "path", path, "error", err)
		return nil, err
	}
	doc.SetIndent(e.indent)
	drafts := e.newDrafts()
	if err := drafts.Open(doc, path); err != nil {
		e.logger.Error("open aborted", "path", path, "error", err)
		return nil, err
	}
	p := newPage(doc, drafts, e.logger)
	p.recordDigest()
	e.addPage(p)
	if e.recent != nil {
		e.recent.RecordOpened(path)
	}
	e.logger.Info("document opened", "path", path, "page", p.number, "nodes", doc.GetNodeCount())
	return p, nil
}

// NewDocument opens an untitled document containing only a root element.
func (e *Editor) NewDocument(rootTag string) error {
	if rootTag == "" {
		rootTag = "root"
	}
	doc := document.New(rootTag)
	doc.SetIndent(e.indent)
	drafts := e.newDrafts()
	if err := drafts.Open(doc, ""); err != nil {
		return err
	}
	e.addPage(newPage(doc, drafts, e.logger))
	return nil
}

// Leftovers lists drafts left behind by earlier sessions, newest first.
// Drafts of documents open in this editor are not included.
func (e *Editor) Leftovers() ([]draft.Leftover, error) {
	all, err := draft.Leftovers(e.draftsDir)
	if err != nil {
		return nil, err
	}
	open := make(map[string]bool)
	for _, p := range e.pages {
		open[p.drafts.GetDraftPath()] = true
	}
	var leftovers []draft.Leftover
	for _, l := range all {
		if !open[l.Path] {
			leftovers = append(leftovers, l)
		}
	}
	return leftovers, nil
}

func (e *Editor) ListLeftovers() string {
	leftovers, err := e.Leftovers()
	if err != nil {
		return err.Error()
	}
	if len(leftovers) == 0 {
		return "no drafts to recover"
	}
	var parts []string
	for i, l := range leftovers {
		parts = append(parts, fmt.Sprintf("[%d] %s %s", i+1, l.Original, l.Created.Format("2006-01-02 15:04:05")))
	}
	return strings.Join(parts, " ")
}

// Recover opens the leftover draft numbered index (1-based, as listed by
// ListLeftovers) as an unsaved document and deletes the leftover.
func (e *Editor) Recover(index int) error {
	leftovers, err := e.Leftovers()
	if err != nil {
		return err
	}
	if index < 1 || index > len(leftovers) {
		return fmt.Errorf("%w: %d", ErrNoLeftover, index)
	}
	l := leftovers[index-1]
	doc, err := document.Load(l.Path)
	if err != nil {
		return err
	}
	doc.SetIndent(e.indent)
	drafts := e.newDrafts()
	if err := drafts.OpenRecovered(doc, l.Original); err != nil {
		return err
	}
	p := newPage(doc, drafts, e.logger)
	p.defaultName = l.Original
	e.addPage(p)
	if err := os.Remove(l.Path); err != nil {
		e.logger.Warn("leftover draft not deleted", "draft", l.Path, "error", err)
	}
	e.logger.Info("draft recovered", "draft", l.Path, "page", p.number)
	return nil
}

// WriteFile saves the focused document. An empty path saves to the
// document's save path. It returns the path written.
func (e *Editor) WriteFile(path string) (string, error) {
	p := e.focused
	if p == nil {
		return "", draft.ErrNothingToSave
	}
	if path == "" {
		path = p.GetSavePath()
	}
	if path == "" {
		path = p.defaultName
	}
	if path == "" {
		return "", ErrNoPath
	}
	written, err := p.drafts.Save(path)
	if err != nil {
		return "", err
	}
	p.recordDigest()
	return written, nil
}

// ClosePage closes the focused page. A draft that differs from the saved
// file is reported in the status message.
func (e *Editor) ClosePage() error {
	p := e.focused
	if p == nil {
		return ErrNoPage
	}
	e.closePage(p)
	return nil
}

func (e *Editor) closePage(p *Page) {
	p.close()
	delete(e.pages, p.number)
	e.logger.Info("document closed", "page", p.number, "name", p.GetName())
	if e.focused == p {
		e.focused = nil
		numbers := e.pageNumbers()
		if len(numbers) > 0 {
			e.focused = e.pages[numbers[len(numbers)-1]]
		}
	}
}

// CloseAll closes every page.
func (e *Editor) CloseAll() {
	for _, number := range e.pageNumbers() {
		e.closePage(e.pages[number])
	}
}

// Tick runs the autosave timer of every page.
func (e *Editor) Tick() {
	for _, number := range e.pageNumbers() {
		p := e.pages[number]
		if err := p.drafts.Tick(); err != nil {
			e.Warn(fmt.Sprintf("autosave of %s failed: %v", p.GetName(), err))
		}
	}
}

// SourceChanged warns when another program changed the file of an open page.
func (e *Editor) SourceChanged(path string) {
	for _, number := range e.pageNumbers() {
		p := e.pages[number]
		if samePath(p.GetSavePath(), path) && p.changedOnDisk() {
			p.recordDigest()
			e.Warn(fmt.Sprintf("%s was changed by another program", p.GetName()))
		}
	}
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}

// WatchedPaths returns the files of open pages.
func (e *Editor) WatchedPaths() []string {
	var paths []string
	for _, number := range e.pageNumbers() {
		if path := e.pages[number].GetSavePath(); path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}

func (e *Editor) pageNumbers() []int {
	numbers := make([]int, 0, len(e.pages))
	for number := range e.pages {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)
	return numbers
}

// GetPage returns the focused page, or nil.
func (e *Editor) GetPage() xmledit.Page {
	if e.focused == nil {
		return nil
	}
	return e.focused
}

// GetActivePage returns the focused page, or nil.
func (e *Editor) GetActivePage() *Page {
	return e.focused
}

func (e *Editor) GetPageCount() int {
	return len(e.pages)
}

func (e *Editor) SelectPage(number int) error {
	p, ok := e.pages[number]
	if !ok {
		return fmt.Errorf("%w: %d", ErrPageNotFound, number)
	}
	e.focused = p
	return nil
}

func (e *Editor) SelectPageNext() error {
	return e.selectPageRelative(1)
}

func (e *Editor) SelectPagePrevious() error {
	return e.selectPageRelative(-1)
}

func (e *Editor) selectPageRelative(step int) error {
	numbers := e.pageNumbers()
	if len(numbers) == 0 {
		return ErrNoPage
	}
	i := 0
	if e.focused != nil {
		i = sort.SearchInts(numbers, e.focused.number)
	}
	i = (i + step + len(numbers)) % len(numbers)
	e.focused = e.pages[numbers[i]]
	return nil
}

func (e *Editor) ListPages() string {
	var parts []string
	for _, number := range e.pageNumbers() {
		p := e.pages[number]
		s := fmt.Sprintf("[%d] %s", number, p.GetName())
		if p.HasUnsyncedChanges() {
			s += "*"
		}
		if p == e.focused {
			s = ">" + s
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return "no documents"
	}
	return strings.Join(parts, " ")
}

func (e *Editor) ListRecent() string {
	if e.recent == nil {
		return "no recent files"
	}
	entries := e.recent.Entries()
	if len(entries) == 0 {
		return "no recent files"
	}
	var parts []string
	for i, entry := range entries {
		parts = append(parts, fmt.Sprintf("[%d] %s", i+1, entry))
	}
	return strings.Join(parts, " ")
}

// RecentFile returns the path numbered index (1-based) in the recent files list.
func (e *Editor) RecentFile(index int) (string, error) {
	if e.recent == nil {
		return "", fmt.Errorf("no recent file %d", index)
	}
	entries := e.recent.Entries()
	if index < 1 || index > len(entries) {
		return "", fmt.Errorf("no recent file %d", index)
	}
	return entries[index-1], nil
}

func (e *Editor) page() (*Page, error) {
	if e.focused == nil {
		return nil, ErrNoPage
	}
	return e.focused, nil
}

func (e *Editor) MoveCursor(direction int) {
	if p := e.focused; p != nil {
		p.tree.MoveCursor(direction)
	}
}

// Expand expands the selected node, or collapses it if already expanded.
func (e *Editor) Expand() error {
	p, err := e.page()
	if err != nil {
		return err
	}
	n := p.GetSelected()
	if n == nil {
		return ErrNoSelection
	}
	if p.tree.IsExpanded(n) {
		p.tree.Collapse(n)
	} else {
		p.tree.Expand(n)
	}
	return nil
}

// Collapse collapses the selected node, or selects its parent if it is
// not expanded.
func (e *Editor) Collapse() error {
	p, err := e.page()
	if err != nil {
		return err
	}
	n := p.GetSelected()
	if n == nil {
		return ErrNoSelection
	}
	if p.tree.IsExpanded(n) {
		p.tree.Collapse(n)
		return nil
	}
	if parent := n.GetParent(); parent != nil {
		return p.tree.Select(parent)
	}
	return nil
}

// SelectNode selects the node with the given id in the focused page.
func (e *Editor) SelectNode(id int) error {
	p, err := e.page()
	if err != nil {
		return err
	}
	n := p.doc.GetNode(id)
	if n == nil {
		return fmt.Errorf("%w: %d", document.ErrNodeNotFound, id)
	}
	return p.tree.Select(n)
}

// Find selects the first node with the given tag.
func (e *Editor) Find(tag string) (*document.Node, error) {
	p, err := e.page()
	if err != nil {
		return nil, err
	}
	n := p.doc.Find(tag)
	if n == nil {
		return nil, fmt.Errorf("%w: no <%s>", document.ErrNodeNotFound, tag)
	}
	return n, p.tree.Select(n)
}

func (e *Editor) edit(field int, key, value string) error {
	p, err := e.page()
	if err != nil {
		return err
	}
	return p.Edit(field, key, value)
}

func (e *Editor) SetTag(value string) error {
	return e.edit(channel.FieldTag, "", value)
}

func (e *Editor) SetText(value string) error {
	return e.edit(channel.FieldText, "", value)
}

func (e *Editor) SetAttribute(key, value string) error {
	return e.edit(channel.FieldAttribute, key, value)
}

func (e *Editor) RemoveAttribute(key string) error {
	return e.edit(channel.FieldAttributeRemoved, key, "")
}

// AddNode adds a child to the selected node and selects it.
func (e *Editor) AddNode(tag, text string) (*document.Node, error) {
	p, err := e.page()
	if err != nil {
		return nil, err
	}
	return p.AddNode(AddNodeRequest{Parent: p.GetSelected(), Tag: tag, Text: text})
}

// RemoveNode removes the selected node and its subtree.
func (e *Editor) RemoveNode() error {
	p, err := e.page()
	if err != nil {
		return err
	}
	return p.RemoveNode(p.GetSelected())
}

func (e *Editor) MoveFieldCursor(direction int) {
	if p := e.focused; p != nil {
		p.panel.MoveCursor(direction)
	}
}

func (e *Editor) InsertChar(ch rune) error {
	p, err := e.page()
	if err != nil {
		return err
	}
	return p.panel.InsertChar(ch)
}

func (e *Editor) BackspaceChar() error {
	p, err := e.page()
	if err != nil {
		return err
	}
	return p.panel.BackspaceChar()
}

// Warn shows a non-blocking warning in the status message.
func (e *Editor) Warn(message string) {
	e.logger.Warn(message)
	e.message = message
	e.warnings = append(e.warnings, message)
}

// TakeWarnings returns the warnings raised since the last call and forgets them.
func (e *Editor) TakeWarnings() []string {
	warnings := e.warnings
	e.warnings = nil
	return warnings
}

func (e *Editor) GetMessage() string {
	return e.message
}

func (e *Editor) SetMessage(message string) {
	e.message = message
}
