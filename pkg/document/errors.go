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

package document

import (
	"errors"
	"fmt"
)

// Mutation errors
var (
	// ErrEmptyKey indicates an attribute operation was given an empty key.
	ErrEmptyKey = errors.New("attribute key is empty")

	// ErrInvalidOperation indicates a structurally invalid request, such as removing the root.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrNodeNotFound indicates a node that is nil or no longer attached to the document.
	ErrNodeNotFound = errors.New("node not found in document")
)

// Serialization errors
var (
	// ErrMalformedTag indicates a tag or attribute key that is not a legal XML name.
	ErrMalformedTag = errors.New("malformed tag")
)

// Parse errors
var (
	// ErrNoRoot indicates that the input contained no element.
	ErrNoRoot = errors.New("no root element")

	// ErrUnbalanced indicates mismatched or unclosed element tags.
	ErrUnbalanced = errors.New("unbalanced element tags")

	// ErrContentAfterRoot indicates elements or text following the root element.
	ErrContentAfterRoot = errors.New("content after root element")
)

// A ParseError reports a document that could not be loaded, either because
// the file could not be read or because its content is not well-formed XML.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse: %v", e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
