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
	"sort"
	"time"
)

// A Leftover is a draft that was not deleted, usually because the
// session that wrote it ended without closing the document.
type Leftover struct {
	Path     string
	Created  time.Time
	Original string // file name of the document the draft was made from
}

// Leftovers lists the non-empty drafts in dir, newest first.
// A missing directory has no leftovers.
func Leftovers(dir string) ([]Leftover, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var leftovers []Leftover
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		created, original, ok := ParseName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		leftovers = append(leftovers, Leftover{
			Path:     filepath.Join(dir, entry.Name()),
			Created:  created,
			Original: original,
		})
	}
	sort.SliceStable(leftovers, func(i, j int) bool {
		return leftovers[i].Created.After(leftovers[j].Created)
	})
	return leftovers, nil
}

// ParseName splits a draft file name into its timestamp and original file name.
func ParseName(name string) (time.Time, string, bool) {
	n := len(TimestampLayout)
	if len(name) < n+2 || name[n] != '-' {
		return time.Time{}, "", false
	}
	created, err := time.ParseInLocation(TimestampLayout, name[:n], time.Local)
	if err != nil {
		return time.Time{}, "", false
	}
	return created, name[n+1:], true
}
