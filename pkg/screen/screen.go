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

package screen

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"

	xmledit "github.com/timburks/xmledit/pkg/types"
)

// The Screen draws the state of an Editor.
type Screen struct {
	size xmledit.Size // screen size
}

func NewScreen() (*Screen, error) {
	// Open the terminal.
	if err := termbox.Init(); err != nil {
		return nil, err
	}
	termbox.SetOutputMode(termbox.Output256)
	termbox.HideCursor()
	return &Screen{}, nil
}

func (s *Screen) Close() {
	termbox.Close()
}

func (s *Screen) Render(e xmledit.Editor, c xmledit.Commander) {
	termbox.Clear(termbox.ColorWhite, termbox.ColorBlack)
	s.size.Cols, s.size.Rows = termbox.Size()

	pageRect := xmledit.Rect{Size: xmledit.Size{Rows: s.size.Rows - 2, Cols: s.size.Cols}}
	if p := e.GetPage(); p != nil {
		p.Render(s, pageRect, c.GetMode() == xmledit.ModeField)
	} else {
		s.drawLine(0, " no document is open; type :o path to open one", xmledit.ColorWhite, xmledit.ColorBlack)
	}
	s.RenderInfoBar(e, c)
	s.RenderMessageBar(c)
	termbox.Flush()
}

func (s *Screen) SetCell(col int, row int, ch rune, fg xmledit.Color, bg xmledit.Color) {
	termbox.SetCell(col, row, ch, termbox.Attribute(fg), termbox.Attribute(bg))
}

// drawLine fills a screen row with text, padding or truncating it to the screen width.
func (s *Screen) drawLine(row int, text string, fg, bg xmledit.Color) {
	text = runewidth.FillRight(runewidth.Truncate(text, s.size.Cols, "…"), s.size.Cols)
	col := 0
	for _, ch := range text {
		s.SetCell(col, row, ch, fg, bg)
		col += runewidth.RuneWidth(ch)
	}
}

// InfoBarText describes the focused page for the info bar.
func InfoBarText(e xmledit.Editor, c xmledit.Commander) (string, string) {
	text := " xmledit"
	var final string
	if p := e.GetPage(); p != nil {
		text += fmt.Sprintf(" - [%d] %s", p.GetNumber(), p.GetName())
		if p.HasUnsyncedChanges() {
			text += " (draft)"
		}
		if n := p.GetSelected(); n != nil {
			final = " " + p.GetDocument().Path(n) + " "
		}
	}
	if count := e.GetPageCount(); count > 1 {
		text += fmt.Sprintf(" of %d", count)
	}
	return text + " ", final
}

func (s *Screen) RenderInfoBar(e xmledit.Editor, c xmledit.Commander) {
	text, final := InfoBarText(e, c)
	width := s.size.Cols - runewidth.StringWidth(final)
	if width < 0 {
		width = 0
		final = runewidth.Truncate(final, s.size.Cols, "")
	}
	text = runewidth.FillRight(runewidth.Truncate(text, width, "…"), width)
	s.drawLine(s.size.Rows-2, text+final, xmledit.ColorBlack, xmledit.ColorWhite)
}

func (s *Screen) RenderMessageBar(c xmledit.Commander) {
	line := c.GetMessageBarText(s.size.Cols)
	s.drawLine(s.size.Rows-1, line, xmledit.ColorWhite, xmledit.ColorBlack)
	switch c.GetMode() {
	case xmledit.ModeCommand, xmledit.ModeLisp:
		termbox.SetCursor(runewidth.StringWidth(line), s.size.Rows-1)
	default:
		termbox.HideCursor()
	}
}

// GetNextEvent waits for the next terminal event.
func (s *Screen) GetNextEvent() *xmledit.Event {
	event := termbox.PollEvent()
	switch event.Type {
	case termbox.EventKey:
		return &xmledit.Event{Type: xmledit.EventKey, Key: key(event.Key), Ch: event.Ch}
	case termbox.EventResize:
		termbox.Flush()
		return &xmledit.Event{Type: xmledit.EventResize}
	default:
		return &xmledit.Event{Type: xmledit.EventOther}
	}
}

// Interrupt makes a pending GetNextEvent return.
func (s *Screen) Interrupt() {
	termbox.Interrupt()
}

func key(k termbox.Key) xmledit.Key {
	if k == 0 {
		return 0
	}
	switch k {
	case termbox.KeyArrowDown:
		return xmledit.KeyArrowDown
	case termbox.KeyArrowLeft:
		return xmledit.KeyArrowLeft
	case termbox.KeyArrowRight:
		return xmledit.KeyArrowRight
	case termbox.KeyArrowUp:
		return xmledit.KeyArrowUp
	case termbox.KeyBackspace, termbox.KeyBackspace2:
		return xmledit.KeyBackspace2
	case termbox.KeyDelete:
		return xmledit.KeyDelete
	case termbox.KeyCtrlA:
		return xmledit.KeyCtrlA
	case termbox.KeyCtrlB:
		return xmledit.KeyCtrlB
	case termbox.KeyCtrlC:
		return xmledit.KeyCtrlC
	case termbox.KeyCtrlD:
		return xmledit.KeyCtrlD
	case termbox.KeyCtrlE:
		return xmledit.KeyCtrlE
	case termbox.KeyCtrlF:
		return xmledit.KeyCtrlF
	case termbox.KeyCtrlG:
		return xmledit.KeyCtrlG
	case termbox.KeyCtrlK:
		return xmledit.KeyCtrlK
	case termbox.KeyCtrlL:
		return xmledit.KeyCtrlL
	case termbox.KeyCtrlN:
		return xmledit.KeyCtrlN
	case termbox.KeyCtrlO:
		return xmledit.KeyCtrlO
	case termbox.KeyCtrlP:
		return xmledit.KeyCtrlP
	case termbox.KeyCtrlQ:
		return xmledit.KeyCtrlQ
	case termbox.KeyCtrlR:
		return xmledit.KeyCtrlR
	case termbox.KeyCtrlS:
		return xmledit.KeyCtrlS
	case termbox.KeyCtrlT:
		return xmledit.KeyCtrlT
	case termbox.KeyCtrlU:
		return xmledit.KeyCtrlU
	case termbox.KeyCtrlV:
		return xmledit.KeyCtrlV
	case termbox.KeyCtrlW:
		return xmledit.KeyCtrlW
	case termbox.KeyCtrlX:
		return xmledit.KeyCtrlX
	case termbox.KeyCtrlY:
		return xmledit.KeyCtrlY
	case termbox.KeyCtrlZ:
		return xmledit.KeyCtrlZ
	case termbox.KeyEnd:
		return xmledit.KeyEnd
	case termbox.KeyEnter:
		return xmledit.KeyEnter
	case termbox.KeyEsc:
		return xmledit.KeyEsc
	case termbox.KeyHome:
		return xmledit.KeyHome
	case termbox.KeyPgdn:
		return xmledit.KeyPgdn
	case termbox.KeyPgup:
		return xmledit.KeyPgup
	case termbox.KeySpace:
		return xmledit.KeySpace
	case termbox.KeyTab:
		return xmledit.KeyTab
	default:
		return xmledit.KeyUnsupported
	}
}
