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

// Package editor implements the document editing functions of xmledit.
// An editor manages multiple pages; each page holds one open document
// together with its selection channel, its draft, a tree view of its
// elements and a panel of fields for the selected element.
// Edits made in the panel are published on the page's channel and applied
// to the document before the draft is written.
package editor
