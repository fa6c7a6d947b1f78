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

// Package draft keeps an autosaved copy of each open document.
// A draft is written to {dir}/{timestamp}-{filename} whenever the document
// is edited and on every autosave tick that follows unsaved edits. When the
// document is closed the draft is compared with the saved file, the user is
// warned if they differ, and the draft is deleted.
package draft

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/timburks/xmledit/pkg/channel"
	"github.com/timburks/xmledit/pkg/document"
	"github.com/timburks/xmledit/pkg/integrity"
)

// TimestampLayout formats the time prefix of draft file names.
const TimestampLayout = "2006-01-02.15.04.05"

// UntitledName is the file name used for documents that have no source file.
const UntitledName = "untitled.xml"

// Manager states
const (
	StateUnopened = iota
	StateLoaded
	StateEditing
	StateAutosavePending
	StateClosed
)

// A WarnFunc shows a non-blocking warning to the user.
type WarnFunc func(message string)

// A Manager owns the draft file of one open document.
type Manager struct {
	dir        string
	doc        *document.Document
	sourcePath string
	savedPath  string
	draftPath  string
	dirty      bool // edited since the last snapshot or save
	unsynced   bool // the draft holds changes the saved file does not
	state      int
	warn       WarnFunc
	logger     *slog.Logger
	now        func() time.Time
}

// NewManager creates a manager that writes drafts into dir.
func NewManager(dir string, warn WarnFunc, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if warn == nil {
		warn = func(string) {}
	}
	return &Manager{dir: dir, warn: warn, logger: logger, now: time.Now}
}

// SetClock replaces the time source used for draft names.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Open attaches doc, loaded from sourcePath, and reserves its draft file.
// Failure to create the drafts directory aborts the open.
func (m *Manager) Open(doc *document.Document, sourcePath string) error {
	name := UntitledName
	if sourcePath != "" {
		name = filepath.Base(sourcePath)
	}
	return m.open(doc, sourcePath, name)
}

// OpenRecovered attaches a document recovered from a leftover draft of originalName.
// The recovered content is written to the new draft immediately.
func (m *Manager) OpenRecovered(doc *document.Document, originalName string) error {
	if originalName == "" {
		originalName = UntitledName
	}
	if err := m.open(doc, "", originalName); err != nil {
		return err
	}
	m.dirty = true
	return m.snapshot()
}

func (m *Manager) open(doc *document.Document, sourcePath, name string) error {
	if m.state != StateUnopened {
		return fmt.Errorf("draft manager already holds a document")
	}
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("%w %s: %w", ErrDraftDir, m.dir, err)
	}
	path, err := m.reserve(name)
	if err != nil {
		return err
	}
	m.doc = doc
	m.sourcePath = sourcePath
	m.draftPath = path
	m.state = StateLoaded
	m.logger.Info("draft reserved", "source", sourcePath, "draft", path)
	return nil
}

// reserve creates an empty draft file with a unique timestamped name.
func (m *Manager) reserve(name string) (string, error) {
	t := m.now()
	for i := 0; i < 60; i++ {
		path := filepath.Join(m.dir, t.Format(TimestampLayout)+"-"+name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			f.Close()
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w %s: %w", ErrDraftPath, path, err)
		}
		t = t.Add(time.Second)
	}
	return "", fmt.Errorf("%w for %s", ErrDraftPath, name)
}

// Subscribe makes edits published on c trigger an autosave.
// Subscribe after the document's own edit handler so that the snapshot
// includes the edit.
func (m *Manager) Subscribe(c *channel.Channel) {
	c.OnEdited(func(channel.Edit) error {
		m.Edited()
		return nil
	})
}

// Edited records an edit and writes a snapshot. A failed write is logged
// and retried on the next tick.
func (m *Manager) Edited() {
	if m.state == StateUnopened || m.state == StateClosed {
		return
	}
	m.dirty = true
	m.state = StateAutosavePending
	if err := m.snapshot(); err != nil {
		m.logger.Error("autosave failed", "draft", m.draftPath, "error", err)
	}
}

// Tick is called by the autosave timer. It writes a snapshot if there are
// edits that have not been snapshotted. Ticks after Close do nothing.
func (m *Manager) Tick() error {
	if m.state == StateUnopened || m.state == StateClosed || !m.dirty {
		return nil
	}
	if err := m.snapshot(); err != nil {
		m.logger.Error("autosave failed", "draft", m.draftPath, "error", err)
		return err
	}
	return nil
}

func (m *Manager) snapshot() error {
	if err := m.doc.WriteFile(m.draftPath); err != nil {
		m.state = StateAutosavePending
		return err
	}
	m.dirty = false
	m.unsynced = true
	m.state = StateEditing
	m.logger.Debug("autosave written", "draft", m.draftPath)
	return nil
}

// Save writes the document to targetPath, adding a .xml suffix if it has none.
// It returns the path written.
func (m *Manager) Save(targetPath string) (string, error) {
	if m.doc == nil || m.state == StateUnopened {
		return "", ErrNothingToSave
	}
	if m.state == StateClosed {
		return "", ErrClosed
	}
	if targetPath == "" {
		return "", fmt.Errorf("no path to save to")
	}
	if !strings.HasSuffix(strings.ToLower(targetPath), ".xml") {
		targetPath += ".xml"
	}
	if err := m.doc.WriteFile(targetPath); err != nil {
		return "", fmt.Errorf("save %s: %w", targetPath, err)
	}
	m.savedPath = targetPath
	m.unsynced = false
	m.dirty = false
	m.logger.Info("document saved", "path", targetPath)
	return targetPath, nil
}

// Close checks the draft against the saved file, warns if they differ, and
// deletes the draft. It reports whether a warning was raised.
func (m *Manager) Close() bool {
	if m.state == StateUnopened || m.state == StateClosed {
		m.state = StateClosed
		return false
	}
	m.state = StateClosed
	diverged := false
	reference := m.GetSavePath()
	if m.unsynced && reference != "" && exists(reference) && exists(m.draftPath) {
		equal, err := integrity.ContentsEqual(reference, m.draftPath)
		if err != nil {
			m.logger.Warn("divergence check failed", "saved", reference, "draft", m.draftPath, "error", err)
		} else if !equal {
			diverged = true
			message := fmt.Sprintf("unsaved changes to %s were only in the draft", filepath.Base(reference))
			m.logger.Warn("draft differs from saved file", "saved", reference, "draft", m.draftPath)
			m.warn(message)
		}
	}
	if err := os.Remove(m.draftPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.logger.Warn("draft deletion failed", "draft", m.draftPath, "error", err)
	}
	m.doc = nil
	return diverged
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (m *Manager) GetState() int {
	return m.state
}

func (m *Manager) GetDraftPath() string {
	return m.draftPath
}

func (m *Manager) GetSourcePath() string {
	return m.sourcePath
}

// GetSavePath returns the last explicitly saved path, or the source path.
func (m *Manager) GetSavePath() string {
	if m.savedPath != "" {
		return m.savedPath
	}
	return m.sourcePath
}

// HasUnsyncedChanges reports whether the draft holds changes the saved file does not.
func (m *Manager) HasUnsyncedChanges() bool {
	return m.unsynced
}

// IsDirty reports whether there are edits not yet written to the draft.
func (m *Manager) IsDirty() bool {
	return m.dirty
}
