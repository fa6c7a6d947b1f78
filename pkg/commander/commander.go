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

package commander

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	xmledit "github.com/timburks/xmledit/pkg/types"
)

// The Commander converts user input into commands to the editor.
type Commander struct {
	editor      xmledit.Editor
	batch       bool        // true if commander is running a lisp script
	mode        int         // editor mode
	debug       bool        // debug mode displays information about events (key codes, etc)
	commandText string      // command as it is being typed on the command line
	lispText    string      // lisp command as it is being typed
	lastKey     xmledit.Key // last key pressed
	lastCh      rune        // last character pressed (if key == 0)
	output      io.Writer   // where scripts print messages
}

func NewCommander(e xmledit.Editor) *Commander {
	c := &Commander{editor: e, mode: xmledit.ModeTree, output: os.Stdout}
	current = c
	return c
}

// SetOutput sets where messages printed by scripts are written.
func (c *Commander) SetOutput(w io.Writer) {
	c.output = w
}

func (c *Commander) GetMode() int {
	return c.mode
}

func (c *Commander) SetMode(m int) {
	c.mode = m
}

func (c *Commander) getModeName() string {
	switch c.mode {
	case xmledit.ModeTree:
		return "tree"
	case xmledit.ModeField:
		return "field"
	case xmledit.ModeCommand:
		return "command"
	case xmledit.ModeLisp:
		return "lisp"
	case xmledit.ModeQuit:
		return "quit"
	default:
		return "unknown"
	}
}

func (c *Commander) IsRunning() bool {
	return c.mode != xmledit.ModeQuit
}

func (c *Commander) ProcessEvent(event *xmledit.Event) error {
	if c.debug {
		c.setMessage(fmt.Sprintf("mode=%s event=%+v", c.getModeName(), event))
	}
	switch event.Type {
	case xmledit.EventKey:
		return c.processKey(event)
	default:
		return nil
	}
}

// perform evaluates a lisp expression for a key and shows any error.
func (c *Commander) perform(expression string) {
	if _, err := c.eval(expression); err != nil {
		c.setMessage(err.Error())
	}
}

func (c *Commander) processKeyTreeMode(event *xmledit.Event) error {
	key := event.Key
	ch := event.Ch

	c.lastKey = event.Key
	c.lastCh = event.Ch

	if key != 0 {
		switch key {
		case xmledit.KeyEsc:
			c.setMessage("")
		case xmledit.KeyArrowUp, xmledit.KeyCtrlP:
			c.perform("(up)")
		case xmledit.KeyArrowDown, xmledit.KeyCtrlN:
			c.perform("(down)")
		case xmledit.KeyArrowRight, xmledit.KeyEnter:
			c.perform("(expand)")
		case xmledit.KeyArrowLeft:
			c.perform("(collapse)")
		case xmledit.KeyTab:
			c.perform("(field-mode)")
		case xmledit.KeyCtrlS:
			c.perform("(save)")
		}
	}
	if ch != 0 {
		switch ch {
		//
		// commands go to the message bar
		//
		case ':':
			c.perform("(command-mode)")
		//
		// lisp commands go to the message bar
		//
		case '(':
			c.perform("(lisp-mode)")
		//
		// tree movement
		//
		case 'k':
			c.perform("(up)")
		case 'j':
			c.perform("(down)")
		case 'l':
			c.perform("(expand)")
		case 'h':
			c.perform("(collapse)")
		case 'e', 'i':
			c.perform("(field-mode)")
		//
		// pages
		//
		case '>':
			c.perform("(next-page)")
		case '<':
			c.perform("(previous-page)")
		//
		// structure
		//
		case 'a':
			c.mode = xmledit.ModeCommand
			c.commandText = "add "
		case 'x':
			c.perform("(remove-node)")
		}
	}
	return nil
}

func (c *Commander) processKeyFieldMode(event *xmledit.Event) error {
	e := c.editor

	key := event.Key
	ch := event.Ch
	var err error
	if key != 0 {
		switch key {
		case xmledit.KeyEsc, xmledit.KeyTab:
			c.mode = xmledit.ModeTree
		case xmledit.KeyArrowUp:
			e.MoveFieldCursor(xmledit.MoveUp)
		case xmledit.KeyArrowDown, xmledit.KeyEnter:
			e.MoveFieldCursor(xmledit.MoveDown)
		case xmledit.KeyBackspace2:
			err = e.BackspaceChar()
		case xmledit.KeySpace:
			err = e.InsertChar(' ')
		}
	}
	if ch != 0 {
		err = e.InsertChar(ch)
	}
	if err != nil {
		c.setMessage(err.Error())
	}
	return nil
}

func (c *Commander) processKeyCommandMode(event *xmledit.Event) error {
	key := event.Key
	ch := event.Ch
	if key != 0 {
		switch key {
		case xmledit.KeyEsc:
			c.commandText = ""
			c.mode = xmledit.ModeTree
		case xmledit.KeyEnter:
			c.performCommand()
		case xmledit.KeyBackspace2:
			if len(c.commandText) > 0 {
				runes := []rune(c.commandText)
				c.commandText = string(runes[:len(runes)-1])
			}
		case xmledit.KeySpace:
			c.commandText += " "
		}
	}
	if ch != 0 {
		c.commandText = c.commandText + string(ch)
	}
	return nil
}

func (c *Commander) processKeyLispMode(event *xmledit.Event) error {
	key := event.Key
	ch := event.Ch
	if key != 0 {
		switch key {
		case xmledit.KeyEsc:
			c.lispText = ""
			c.mode = xmledit.ModeTree
		case xmledit.KeyEnter:
			c.setMessage(c.parseEval(c.lispText))
			c.lispText = ""
			// if evaluation didn't change the mode, set it back to tree
			if c.mode == xmledit.ModeLisp {
				c.mode = xmledit.ModeTree
			}
		case xmledit.KeyBackspace2:
			if len(c.lispText) > 0 {
				runes := []rune(c.lispText)
				c.lispText = string(runes[:len(runes)-1])
			}
		case xmledit.KeySpace:
			c.lispText += " "
		}
	}
	if ch != 0 {
		c.lispText = c.lispText + string(ch)
	}
	return nil
}

func (c *Commander) processKey(event *xmledit.Event) error {
	var err error
	switch c.mode {
	case xmledit.ModeTree:
		err = c.processKeyTreeMode(event)
	case xmledit.ModeField:
		err = c.processKeyFieldMode(event)
	case xmledit.ModeCommand:
		err = c.processKeyCommandMode(event)
	case xmledit.ModeLisp:
		err = c.processKeyLispMode(event)
	}
	return err
}

// PerformCommand runs a command line as if it had been typed after ':'.
// The error, if any, is also shown as the message.
func (c *Commander) PerformCommand(command string) error {
	c.commandText = command
	return c.performCommand()
}

// performCommand runs the command line held in commandText.
func (c *Commander) performCommand() error {
	e := c.editor

	command := strings.TrimSpace(c.commandText)
	c.commandText = ""
	c.mode = xmledit.ModeTree

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil
	}
	name := parts[0]
	rest := strings.TrimSpace(strings.TrimPrefix(command, name))
	argc := len(parts) - 1

	var err error
	c.setMessage("")

	if id, convErr := strconv.Atoi(name); convErr == nil {
		err = e.SelectNode(id)
		c.report(err)
		return err
	}
	switch name {
	case "q", "quit":
		c.closePage()
		return nil
	case "qa":
		e.CloseAll()
		c.mode = xmledit.ModeQuit
		return nil
	case "o", "open":
		if argc == 0 {
			err = errors.New("usage: o path")
			break
		}
		err = e.ReadFile(rest)
		if err == nil {
			c.setMessage("opened " + rest)
		}
	case "new":
		err = e.NewDocument(rest)
	case "w", "write":
		var written string
		written, err = e.WriteFile(rest)
		if err == nil {
			c.setMessage("wrote " + written)
		}
	case "wq":
		_, err = e.WriteFile(rest)
		if err == nil {
			c.closePage()
			return nil
		}
	case "add":
		if argc == 0 {
			err = errors.New("usage: add tag [text]")
			break
		}
		text := strings.TrimSpace(strings.TrimPrefix(rest, parts[1]))
		_, err = e.AddNode(parts[1], text)
	case "rm":
		err = e.RemoveNode()
	case "tag":
		err = e.SetTag(rest)
	case "text":
		err = e.SetText(rest)
	case "attr":
		if argc == 0 {
			err = errors.New("usage: attr key value")
			break
		}
		value := strings.TrimSpace(strings.TrimPrefix(rest, parts[1]))
		err = e.SetAttribute(parts[1], value)
	case "unattr":
		err = e.RemoveAttribute(rest)
	case "find":
		_, err = e.Find(rest)
	case "expand":
		err = e.Expand()
	case "path":
		if p := e.GetPage(); p != nil {
			c.setMessage(p.GetDocument().Path(p.GetSelected()))
		}
	case "recent":
		if argc == 0 {
			c.setMessage(e.ListRecent())
			return nil
		}
		var path string
		path, err = c.recentFile(parts[1])
		if err == nil {
			err = e.ReadFile(path)
		}
	case "drafts":
		c.setMessage(e.ListLeftovers())
	case "recover":
		var n int
		n, err = c.number(parts, "recover N")
		if err == nil {
			err = e.Recover(n)
		}
	case "next":
		err = e.SelectPageNext()
	case "prev":
		err = e.SelectPagePrevious()
	case "page":
		var n int
		n, err = c.number(parts, "page N")
		if err == nil {
			err = e.SelectPage(n)
		}
	case "pages":
		c.setMessage(e.ListPages())
	case "debug":
		if argc == 1 {
			if parts[1] == "on" {
				c.debug = true
			} else if parts[1] == "off" {
				c.debug = false
				c.setMessage("")
			}
		}
	default:
		err = fmt.Errorf("unknown command: %s", name)
	}
	c.report(err)
	return err
}

func (c *Commander) report(err error) {
	if err != nil {
		c.setMessage(err.Error())
	}
}

// closePage closes the focused page and quits when no pages are left.
func (c *Commander) closePage() {
	e := c.editor
	if e.GetPageCount() > 0 {
		e.SetMessage("")
		e.ClosePage()
	}
	if e.GetPageCount() == 0 {
		c.mode = xmledit.ModeQuit
	}
}

func (c *Commander) number(parts []string, usage string) (int, error) {
	if len(parts) != 2 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	return strconv.Atoi(parts[1])
}

func (c *Commander) recentFile(arg string) (string, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return "", err
	}
	return c.editor.RecentFile(n)
}

func (c *Commander) getLispText() string {
	return c.lispText
}

func (c *Commander) getCommandText() string {
	return c.commandText
}

// The status message is kept by the editor so that its warnings and
// command results share the message bar.
func (c *Commander) setMessage(message string) {
	c.editor.SetMessage(message)
}

func (c *Commander) GetMessage() string {
	return c.editor.GetMessage()
}

func (c *Commander) GetMessageBarText(length int) string {
	var line string
	switch c.GetMode() {
	case xmledit.ModeCommand:
		line += ":" + c.getCommandText()
	case xmledit.ModeLisp:
		line += c.getLispText()
	default:
		line += c.GetMessage()
	}
	if runes := []rune(line); len(runes) > length {
		line = string(runes[0:length])
	}
	return line
}
