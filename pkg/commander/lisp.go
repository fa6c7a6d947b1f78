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
	"log/slog"
	"os"
	"strings"
	"unicode"

	"github.com/steelseries/golisp"

	"github.com/timburks/xmledit/pkg/document"
	xmledit "github.com/timburks/xmledit/pkg/types"
)

// current is the commander that lisp primitives act on.
var current *Commander

var errNoDocument = errors.New("no document is open")

func init() {
	// documents
	golisp.MakePrimitiveFunction("open", "1", openImpl)
	golisp.MakePrimitiveFunction("new", "0|1", newImpl)
	golisp.MakePrimitiveFunction("save", "0|1", saveImpl)
	golisp.MakePrimitiveFunction("close", "0", closeImpl)
	// navigation
	golisp.MakePrimitiveFunction("root", "0", rootImpl)
	golisp.MakePrimitiveFunction("selected", "0", selectedImpl)
	golisp.MakePrimitiveFunction("select", "1", selectImpl)
	golisp.MakePrimitiveFunction("children", "0|1", childrenImpl)
	golisp.MakePrimitiveFunction("find", "1", findImpl)
	golisp.MakePrimitiveFunction("path", "0|1", pathImpl)
	golisp.MakePrimitiveFunction("expand", "0", expandImpl)
	golisp.MakePrimitiveFunction("collapse", "0", collapseImpl)
	golisp.MakePrimitiveFunction("up", "0", upImpl)
	golisp.MakePrimitiveFunction("down", "0", downImpl)
	golisp.MakePrimitiveFunction("next-page", "0", nextPageImpl)
	golisp.MakePrimitiveFunction("previous-page", "0", previousPageImpl)
	// values
	golisp.MakePrimitiveFunction("tag", "0|1", tagImpl)
	golisp.MakePrimitiveFunction("text", "0|1", textImpl)
	golisp.MakePrimitiveFunction("attribute", "1|2", attributeImpl)
	// edits
	golisp.MakePrimitiveFunction("set-tag", "1", setTagImpl)
	golisp.MakePrimitiveFunction("set-text", "1", setTextImpl)
	golisp.MakePrimitiveFunction("set-attribute", "2", setAttributeImpl)
	golisp.MakePrimitiveFunction("remove-attribute", "1", removeAttributeImpl)
	golisp.MakePrimitiveFunction("add-node", "1|2", addNodeImpl)
	golisp.MakePrimitiveFunction("remove-node", "0", removeNodeImpl)
	// interaction
	golisp.MakePrimitiveFunction("message", "1", messageImpl)
	golisp.MakePrimitiveFunction("command", "1", commandImpl)
	golisp.MakePrimitiveFunction("command-mode", "0", commandModeImpl)
	golisp.MakePrimitiveFunction("lisp-mode", "0", lispModeImpl)
	golisp.MakePrimitiveFunction("field-mode", "0", fieldModeImpl)
}

func (c *Commander) eval(expression string) (*golisp.Data, error) {
	return golisp.ParseAndEval(expression)
}

// parseEval evaluates an expression and returns its printed value or error.
func (c *Commander) parseEval(expression string) string {
	value, err := c.eval(expression)
	if err != nil {
		slog.Debug("lisp error", "expression", expression, "error", err)
		return err.Error()
	}
	return golisp.String(value)
}

// ParseEvalFile runs the lisp script at path, one top-level form at a time.
// It stops at the first error.
func (c *Commander) ParseEvalFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	forms, err := splitForms(string(b))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	c.batch = true
	defer func() { c.batch = false }()
	for i, form := range forms {
		value, err := c.eval(form)
		if err != nil {
			return fmt.Errorf("%s: form %d: %w", path, i+1, err)
		}
		slog.Debug("script", "form", form, "value", golisp.String(value))
	}
	return nil
}

// splitForms separates the top-level expressions of a script.
// Comments start with ';' and run to the end of the line.
func splitForms(src string) ([]string, error) {
	var forms []string
	var form strings.Builder
	depth := 0
	inString, escaped, inComment := false, false, false
	flush := func() {
		if s := strings.TrimSpace(form.String()); s != "" {
			forms = append(forms, s)
		}
		form.Reset()
	}
	for _, ch := range src {
		switch {
		case inComment:
			if ch == '\n' {
				inComment = false
				if depth > 0 {
					form.WriteRune(ch)
				}
			}
			continue
		case inString:
			form.WriteRune(ch)
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		switch {
		case ch == ';':
			inComment = true
			if depth == 0 {
				flush()
			}
		case ch == '"':
			inString = true
			form.WriteRune(ch)
		case ch == '(':
			if depth == 0 {
				flush()
			}
			depth++
			form.WriteRune(ch)
		case ch == ')':
			if depth == 0 {
				return nil, errors.New("unexpected ')'")
			}
			depth--
			form.WriteRune(ch)
			if depth == 0 {
				flush()
			}
		case unicode.IsSpace(ch) && depth == 0:
			flush()
		default:
			form.WriteRune(ch)
		}
	}
	if depth > 0 || inString {
		return nil, errors.New("unterminated expression")
	}
	flush()
	return forms, nil
}

func argument(args *golisp.Data, index int) *golisp.Data {
	for i := 0; i < index; i++ {
		args = golisp.Cdr(args)
	}
	return golisp.Car(args)
}

func stringArgument(args *golisp.Data, index int, name string) (string, error) {
	d := argument(args, index)
	if !golisp.StringP(d) && !golisp.SymbolP(d) {
		return "", fmt.Errorf("%s requires a string argument", name)
	}
	return golisp.StringValue(d), nil
}

func intArgument(args *golisp.Data, index int, name string) (int, error) {
	d := argument(args, index)
	if !golisp.IntegerP(d) {
		return 0, fmt.Errorf("%s requires an integer argument", name)
	}
	return int(golisp.IntegerValue(d)), nil
}

func page() (xmledit.Page, error) {
	p := current.editor.GetPage()
	if p == nil {
		return nil, errNoDocument
	}
	return p, nil
}

// node returns the node whose id is the first argument, or the selected node.
func node(args *golisp.Data, name string) (*document.Node, error) {
	p, err := page()
	if err != nil {
		return nil, err
	}
	if golisp.NilP(args) {
		if n := p.GetSelected(); n != nil {
			return n, nil
		}
		return nil, errors.New("no node is selected")
	}
	id, err := intArgument(args, 0, name)
	if err != nil {
		return nil, err
	}
	n := p.GetDocument().GetNode(id)
	if n == nil {
		return nil, fmt.Errorf("%w: %d", document.ErrNodeNotFound, id)
	}
	return n, nil
}

func nodeValue(n *document.Node) *golisp.Data {
	return golisp.IntegerWithValue(int64(n.GetID()))
}

func selectedValue() (*golisp.Data, error) {
	n, err := node(nil, "selected")
	if err != nil {
		return nil, err
	}
	return nodeValue(n), nil
}

func openImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	path, err := stringArgument(args, 0, "open")
	if err != nil {
		return nil, err
	}
	if err := current.editor.ReadFile(path); err != nil {
		return nil, err
	}
	return selectedValue()
}

func newImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	tag := ""
	if !golisp.NilP(args) {
		var err error
		if tag, err = stringArgument(args, 0, "new"); err != nil {
			return nil, err
		}
	}
	if err := current.editor.NewDocument(tag); err != nil {
		return nil, err
	}
	return selectedValue()
}

func saveImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	path := ""
	if !golisp.NilP(args) {
		var err error
		if path, err = stringArgument(args, 0, "save"); err != nil {
			return nil, err
		}
	}
	written, err := current.editor.WriteFile(path)
	if err != nil {
		return nil, err
	}
	current.setMessage("wrote " + written)
	return golisp.StringWithValue(written), nil
}

func closeImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	if err := current.editor.ClosePage(); err != nil {
		return nil, err
	}
	return golisp.LispTrue, nil
}

func rootImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	p, err := page()
	if err != nil {
		return nil, err
	}
	return nodeValue(p.GetDocument().GetRoot()), nil
}

func selectedImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	return selectedValue()
}

func selectImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	id, err := intArgument(args, 0, "select")
	if err != nil {
		return nil, err
	}
	if err := current.editor.SelectNode(id); err != nil {
		return nil, err
	}
	return selectedValue()
}

func childrenImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	n, err := node(args, "children")
	if err != nil {
		return nil, err
	}
	children := n.GetChildren()
	var list *golisp.Data
	for i := len(children) - 1; i >= 0; i-- {
		list = golisp.Cons(nodeValue(children[i]), list)
	}
	return list, nil
}

func findImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	tag, err := stringArgument(args, 0, "find")
	if err != nil {
		return nil, err
	}
	n, err := current.editor.Find(tag)
	if err != nil {
		return nil, err
	}
	return nodeValue(n), nil
}

func pathImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	n, err := node(args, "path")
	if err != nil {
		return nil, err
	}
	p, _ := page()
	return golisp.StringWithValue(p.GetDocument().Path(n)), nil
}

func expandImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	if err := current.editor.Expand(); err != nil {
		return nil, err
	}
	return selectedValue()
}

func collapseImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	if err := current.editor.Collapse(); err != nil {
		return nil, err
	}
	return selectedValue()
}

func upImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	current.editor.MoveCursor(xmledit.MoveUp)
	return selectedValue()
}

func downImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	current.editor.MoveCursor(xmledit.MoveDown)
	return selectedValue()
}

func nextPageImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	if err := current.editor.SelectPageNext(); err != nil {
		return nil, err
	}
	return golisp.IntegerWithValue(int64(current.editor.GetPage().GetNumber())), nil
}

func previousPageImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	if err := current.editor.SelectPagePrevious(); err != nil {
		return nil, err
	}
	return golisp.IntegerWithValue(int64(current.editor.GetPage().GetNumber())), nil
}

func tagImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	n, err := node(args, "tag")
	if err != nil {
		return nil, err
	}
	return golisp.StringWithValue(n.GetTag()), nil
}

func textImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	n, err := node(args, "text")
	if err != nil {
		return nil, err
	}
	return golisp.StringWithValue(n.GetText()), nil
}

// (attribute key) reads from the selected node, (attribute id key) from node id.
func attributeImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	var n *document.Node
	var err error
	keyIndex := 0
	if golisp.IntegerP(golisp.Car(args)) {
		n, err = node(args, "attribute")
		keyIndex = 1
	} else {
		n, err = node(nil, "attribute")
	}
	if err != nil {
		return nil, err
	}
	key, err := stringArgument(args, keyIndex, "attribute")
	if err != nil {
		return nil, err
	}
	value, ok := n.GetAttribute(key)
	if !ok {
		return nil, nil
	}
	return golisp.StringWithValue(value), nil
}

func setTagImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	value, err := stringArgument(args, 0, "set-tag")
	if err != nil {
		return nil, err
	}
	if err := current.editor.SetTag(value); err != nil {
		return nil, err
	}
	return selectedValue()
}

func setTextImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	value, err := stringArgument(args, 0, "set-text")
	if err != nil {
		return nil, err
	}
	if err := current.editor.SetText(value); err != nil {
		return nil, err
	}
	return selectedValue()
}

func setAttributeImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	key, err := stringArgument(args, 0, "set-attribute")
	if err != nil {
		return nil, err
	}
	value, err := stringArgument(args, 1, "set-attribute")
	if err != nil {
		return nil, err
	}
	if err := current.editor.SetAttribute(key, value); err != nil {
		return nil, err
	}
	return selectedValue()
}

func removeAttributeImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	key, err := stringArgument(args, 0, "remove-attribute")
	if err != nil {
		return nil, err
	}
	if err := current.editor.RemoveAttribute(key); err != nil {
		return nil, err
	}
	return selectedValue()
}

func addNodeImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	tag, err := stringArgument(args, 0, "add-node")
	if err != nil {
		return nil, err
	}
	text := ""
	if !golisp.NilP(golisp.Cdr(args)) {
		if text, err = stringArgument(args, 1, "add-node"); err != nil {
			return nil, err
		}
	}
	n, err := current.editor.AddNode(tag, text)
	if err != nil {
		return nil, err
	}
	return nodeValue(n), nil
}

func removeNodeImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	if err := current.editor.RemoveNode(); err != nil {
		return nil, err
	}
	return selectedValue()
}

func messageImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	d := golisp.Car(args)
	text := golisp.String(d)
	if golisp.StringP(d) {
		text = golisp.StringValue(d)
	}
	if current.batch {
		fmt.Fprintln(current.output, text)
	} else {
		current.setMessage(text)
	}
	return golisp.StringWithValue(text), nil
}

// (command "w out.xml") performs a command line.
func commandImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	command, err := stringArgument(args, 0, "command")
	if err != nil {
		return nil, err
	}
	if err := current.PerformCommand(command); err != nil {
		return nil, err
	}
	return golisp.StringWithValue(current.GetMessage()), nil
}

func commandModeImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	current.mode = xmledit.ModeCommand
	current.commandText = ""
	return golisp.LispTrue, nil
}

func lispModeImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	current.mode = xmledit.ModeLisp
	current.lispText = "("
	return golisp.LispTrue, nil
}

func fieldModeImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	if _, err := page(); err != nil {
		return nil, err
	}
	current.mode = xmledit.ModeField
	return golisp.LispTrue, nil
}
