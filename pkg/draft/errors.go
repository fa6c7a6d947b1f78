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

import "errors"

var (
	// ErrNothingToSave indicates a save request with no loaded document.
	ErrNothingToSave = errors.New("nothing to save")

	// ErrDraftDir indicates that the drafts directory could not be created.
	// A document cannot be opened without a draft location.
	ErrDraftDir = errors.New("cannot create drafts directory")

	// ErrDraftPath indicates that no free draft file name could be reserved.
	ErrDraftPath = errors.New("cannot reserve draft file")

	// ErrClosed indicates an operation on a manager whose document is closed.
	ErrClosed = errors.New("document is closed")
)
