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

import "errors"

var (
	// ErrNoPage indicates a command that needs an open document.
	ErrNoPage = errors.New("no document is open")

	// ErrNoSelection indicates a command that needs a selected node.
	ErrNoSelection = errors.New("no node is selected")

	// ErrNoPath indicates a save with no file name to save to.
	ErrNoPath = errors.New("no file name")

	ErrPageNotFound = errors.New("no such page")

	// ErrNoLeftover indicates a recover request for a draft that is not listed.
	ErrNoLeftover = errors.New("no such draft")
)
