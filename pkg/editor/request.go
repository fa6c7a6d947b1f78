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
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/timburks/xmledit/pkg/document"
)

// MaxTagLength bounds the tag of an added node.
const MaxTagLength = 256

var tagPattern = regexp.MustCompile(`^[^\s<>&"'/=]+$`)

// An AddNodeRequest asks for a new child of Parent.
type AddNodeRequest struct {
	Parent *document.Node
	Tag    string
	Text   string
}

func (r AddNodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Parent, validation.NotNil),
		validation.Field(&r.Tag,
			validation.Required,
			validation.Length(1, MaxTagLength),
			validation.Match(tagPattern).Error("must not contain spaces or markup characters"),
		),
	)
}
