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

package types

import "github.com/timburks/xmledit/pkg/document"

// Editor modes
const (
	ModeTree    = 0 // moving through the document tree
	ModeField   = 1 // typing into a field of the node panel
	ModeCommand = 2
	ModeLisp    = 3
	ModeQuit    = 9999
)

// Move directions
const (
	MoveUp   = 0
	MoveDown = 1
)

// Field kinds shown in the node panel
const (
	FieldTag       = 0
	FieldText      = 1
	FieldAttribute = 2
	FieldChild     = 3 // text of a child element, or a summary of a child with children
)

// Event types
const (
	EventKey    = 0
	EventResize = 1
	EventOther  = 2
)

type Key uint16

const (
	KeyUnsupported Key = iota + 1
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyBackspace2
	KeyDelete
	KeyEnd
	KeyEnter
	KeyEsc
	KeyHome
	KeyPgdn
	KeyPgup
	KeySpace
	KeyTab
	KeyCtrlA
	KeyCtrlB
	KeyCtrlC
	KeyCtrlD
	KeyCtrlE
	KeyCtrlF
	KeyCtrlG
	KeyCtrlK
	KeyCtrlL
	KeyCtrlN
	KeyCtrlO
	KeyCtrlP
	KeyCtrlQ
	KeyCtrlR
	KeyCtrlS
	KeyCtrlT
	KeyCtrlU
	KeyCtrlV
	KeyCtrlW
	KeyCtrlX
	KeyCtrlY
	KeyCtrlZ
)

// An Event is a key press or a terminal resize.
// Key is zero when Ch holds a printable character.
type Event struct {
	Type int
	Key  Key
	Ch   rune
}

// Color values match the terminal attributes they are drawn with.
type Color uint16

const (
	ColorDefault Color = iota
	ColorBlack
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
)

const (
	AttrBold    Color = 0x0200
	AttrReverse Color = 0x0800
)

type Point struct {
	Row int
	Col int
}

type Size struct {
	Rows int
	Cols int
}

type Rect struct {
	Origin Point
	Size   Size
}

// A Row is one visible line of a tree view.
type Row struct {
	Node        *document.Node
	Depth       int
	Expanded    bool
	HasChildren bool
}

// A Field is one line of the node panel.
type Field struct {
	Kind     int
	Label    string
	Key      string // attribute key for FieldAttribute
	Value    string
	Node     *document.Node // node whose value the field shows
	Editable bool
}

// A Display draws cells.
type Display interface {
	SetCell(col int, row int, ch rune, fg Color, bg Color)
}

// A Page is one open document.
type Page interface {
	GetNumber() int
	GetName() string
	GetDocument() *document.Document
	GetSelected() *document.Node
	GetSavePath() string
	HasUnsyncedChanges() bool
	Render(d Display, r Rect, fieldsFocused bool)
}

type Editor interface {
	ReadFile(path string) error
	NewDocument(rootTag string) error
	WriteFile(path string) (string, error)
	ClosePage() error
	CloseAll()
	Tick()
	SourceChanged(path string)
	WatchedPaths() []string

	GetPage() Page
	GetPageCount() int
	SelectPage(number int) error
	SelectPageNext() error
	SelectPagePrevious() error
	ListPages() string
	ListRecent() string
	ListLeftovers() string
	RecentFile(index int) (string, error)
	Recover(index int) error

	MoveCursor(direction int)
	Expand() error
	Collapse() error
	SelectNode(id int) error
	Find(tag string) (*document.Node, error)

	SetTag(value string) error
	SetText(value string) error
	SetAttribute(key, value string) error
	RemoveAttribute(key string) error
	AddNode(tag, text string) (*document.Node, error)
	RemoveNode() error

	MoveFieldCursor(direction int)
	InsertChar(ch rune) error
	BackspaceChar() error

	Warn(message string)
	GetMessage() string
	SetMessage(message string)
}

type Commander interface {
	GetMode() int
	GetMessageBarText(length int) string
}
