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

// Package recent tracks recently opened documents.
// The list is stored as plain text, one absolute path per line, most
// recently opened first.
package recent

import (
	"bufio"
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxEntries bounds the length of the list.
const MaxEntries = 10

// A Tracker maintains the recent files list stored at path.
type Tracker struct {
	path   string
	logger *slog.Logger
}

func NewTracker(path string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{path: path, logger: logger}
}

func (t *Tracker) GetPath() string {
	return t.path
}

// Entries returns the stored list. A missing or corrupt file reads as empty.
func (t *Tracker) Entries() []string {
	b, err := os.ReadFile(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			t.logger.Debug("recent files unreadable", "path", t.path, "error", err)
		}
		return nil
	}
	if !utf8.Valid(b) || bytes.IndexByte(b, 0) >= 0 {
		t.logger.Debug("recent files corrupt", "path", t.path)
		return nil
	}
	var entries []string
	scanner := bufio.NewScanner(bytes.NewReader(b))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || contains(entries, line) {
			continue
		}
		entries = append(entries, line)
		if len(entries) == MaxEntries {
			break
		}
	}
	return entries
}

// RecordOpened moves path to the front of the list and persists it.
// Persistence failures are logged and otherwise ignored.
func (t *Tracker) RecordOpened(path string) []string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	entries := []string{path}
	for _, entry := range t.Entries() {
		if entry != path {
			entries = append(entries, entry)
		}
	}
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	if err := t.write(entries); err != nil {
		t.logger.Debug("recent files not saved", "path", t.path, "error", err)
	}
	return entries
}

func (t *Tracker) write(entries []string) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(t.path, []byte(strings.Join(entries, "\n")+"\n"), 0644)
}

func contains(entries []string, s string) bool {
	for _, entry := range entries {
		if entry == s {
			return true
		}
	}
	return false
}
