// internal/browser/jsbind/element.go
package jsbind

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/dop251/goja"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is the Go side of a wrapped DOM node. Despite the name it also backs text
// and comment nodes; element-only members live on a separate prototype.
type Element struct {
	host   *Host
	Node   *html.Node
	Object *goja.Object

	// dirty form control state, set once script assigns value/checked.
	value   *string
	checked *bool
}

// wrap returns the unique JS object for node, creating it on first use.
func (h *Host) wrap(node *html.Node) goja.Value {
	if node == nil {
		return goja.Null()
	}
	if h.document != nil && node == h.document.root {
		return h.document.Object
	}
	if el, ok := h.elements[node]; ok {
		return el.Object
	}
	el := &Element{host: h, Node: node, Object: h.vm.NewObject()}
	if node.Type == html.ElementNode {
		el.Object.SetPrototype(h.elemProto)
	} else {
		el.Object.SetPrototype(h.nodeProto)
	}
	h.elements[node] = el
	h.byObject[el.Object] = el
	return el.Object
}

func (h *Host) wrapList(nodes []*html.Node) goja.Value {
	values := make([]any, len(nodes))
	for i, n := range nodes {
		values[i] = h.wrap(n)
	}
	return h.vm.NewArray(values...)
}

// elementOf resolves `this` (or an argument) to its Go wrapper or throws.
func (h *Host) elementOf(obj *goja.Object) *Element {
	el, ok := h.byObject[obj]
	if !ok {
		h.throwTypeError("Illegal invocation")
	}
	return el
}

// unwrapNode converts a JS node argument back to the Go wrapper.
func (h *Host) unwrapNode(v goja.Value, method string) *Element {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		h.throwTypeError("Failed to execute '%s' on 'Node': parameter 1 is not of type 'Node'.", method)
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		h.throwTypeError("Failed to execute '%s' on 'Node': parameter 1 is not of type 'Node'.", method)
	}
	el, ok := h.byObject[obj]
	if !ok {
		h.throwTypeError("Failed to execute '%s' on 'Node': parameter 1 is not of type 'Node'.", method)
	}
	return el
}

// newNodePrototypes builds the shared Node and Element prototypes.
func (h *Host) newNodePrototypes() (*goja.Object, *goja.Object) {
	node := h.vm.NewObject()
	h.defineEventTarget(node)
	h.defineNodeMembers(node)

	elem := h.vm.NewObject()
	elem.SetPrototype(node)
	h.defineElementMembers(elem)
	return node, elem
}

func (h *Host) defineNodeMembers(p *goja.Object) {
	self := func(this *goja.Object) *Element { return h.elementOf(this) }

	h.accessor(p, "nodeType", func(this *goja.Object) goja.Value {
		return h.vm.ToValue(nodeType(self(this).Node))
	}, nil)
	h.accessor(p, "nodeName", func(this *goja.Object) goja.Value {
		return h.vm.ToValue(nodeName(self(this).Node))
	}, nil)
	h.accessor(p, "parentNode", func(this *goja.Object) goja.Value {
		return h.wrap(self(this).Node.Parent)
	}, nil)
	h.accessor(p, "parentElement", func(this *goja.Object) goja.Value {
		parent := self(this).Node.Parent
		if parent == nil || parent.Type != html.ElementNode {
			return goja.Null()
		}
		return h.wrap(parent)
	}, nil)
	h.accessor(p, "childNodes", func(this *goja.Object) goja.Value {
		var children []*html.Node
		for c := self(this).Node.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		return h.wrapList(children)
	}, nil)
	h.accessor(p, "firstChild", func(this *goja.Object) goja.Value { return h.wrap(self(this).Node.FirstChild) }, nil)
	h.accessor(p, "lastChild", func(this *goja.Object) goja.Value { return h.wrap(self(this).Node.LastChild) }, nil)
	h.accessor(p, "nextSibling", func(this *goja.Object) goja.Value { return h.wrap(self(this).Node.NextSibling) }, nil)
	h.accessor(p, "previousSibling", func(this *goja.Object) goja.Value { return h.wrap(self(this).Node.PrevSibling) }, nil)
	h.accessor(p, "isConnected", func(this *goja.Object) goja.Value {
		return h.vm.ToValue(h.isConnected(self(this).Node))
	}, nil)
	h.accessor(p, "ownerDocument", func(*goja.Object) goja.Value { return h.document.Object }, nil)

	h.accessor(p, "textContent", func(this *goja.Object) goja.Value {
		n := self(this).Node
		if n.Type == html.ElementNode {
			return h.vm.ToValue(htmlquery.InnerText(n))
		}
		return h.vm.ToValue(n.Data)
	}, func(this *goja.Object, v goja.Value) {
		el := self(this)
		if el.Node.Type != html.ElementNode {
			el.Node.Data = v.String()
			return
		}
		h.replaceChildrenWithText(el.Node, stringOrEmpty(v))
	})
	h.accessor(p, "nodeValue", func(this *goja.Object) goja.Value {
		n := self(this).Node
		if n.Type == html.TextNode || n.Type == html.CommentNode {
			return h.vm.ToValue(n.Data)
		}
		return goja.Null()
	}, func(this *goja.Object, v goja.Value) {
		n := self(this).Node
		if n.Type == html.TextNode || n.Type == html.CommentNode {
			n.Data = v.String()
		}
	})

	h.method(p, "appendChild", func(call goja.FunctionCall) goja.Value {
		parent := self(call.This.ToObject(h.vm))
		child := h.unwrapNode(call.Argument(0), "appendChild")
		h.insertNode(parent.Node, child.Node, nil)
		return child.Object
	})
	h.method(p, "insertBefore", func(call goja.FunctionCall) goja.Value {
		parent := self(call.This.ToObject(h.vm))
		child := h.unwrapNode(call.Argument(0), "insertBefore")
		var ref *html.Node
		if r := call.Argument(1); !goja.IsNull(r) && !goja.IsUndefined(r) {
			ref = h.unwrapNode(r, "insertBefore").Node
			if ref.Parent != parent.Node {
				h.throwDOMException("NotFoundError", "Failed to execute 'insertBefore' on 'Node': The node before which the new node is to be inserted is not a child of this node.")
			}
		}
		h.insertNode(parent.Node, child.Node, ref)
		return child.Object
	})
	h.method(p, "removeChild", func(call goja.FunctionCall) goja.Value {
		parent := self(call.This.ToObject(h.vm))
		child := h.unwrapNode(call.Argument(0), "removeChild")
		if child.Node.Parent != parent.Node {
			h.throwDOMException("NotFoundError", "Failed to execute 'removeChild' on 'Node': The node to be removed is not a child of this node.")
		}
		h.detach(child.Node)
		return child.Object
	})
	h.method(p, "remove", func(call goja.FunctionCall) goja.Value {
		h.detach(self(call.This.ToObject(h.vm)).Node)
		return goja.Undefined()
	})
	h.method(p, "cloneNode", func(call goja.FunctionCall) goja.Value {
		n := self(call.This.ToObject(h.vm)).Node
		return h.wrap(cloneHTMLNode(n, call.Argument(0).ToBoolean()))
	})
	h.method(p, "contains", func(call goja.FunctionCall) goja.Value {
		n := self(call.This.ToObject(h.vm)).Node
		other, ok := call.Argument(0).(*goja.Object)
		if !ok {
			return h.vm.ToValue(false)
		}
		target, ok := h.byObject[other]
		if !ok {
			return h.vm.ToValue(false)
		}
		for c := target.Node; c != nil; c = c.Parent {
			if c == n {
				return h.vm.ToValue(true)
			}
		}
		return h.vm.ToValue(false)
	})
}

func (h *Host) defineElementMembers(p *goja.Object) {
	self := func(this *goja.Object) *Element { return h.elementOf(this) }
	reflect := func(name, attr string) {
		h.accessor(p, name, func(this *goja.Object) goja.Value {
			v, _ := getAttr(self(this).Node, attr)
			return h.vm.ToValue(v)
		}, func(this *goja.Object, v goja.Value) {
			setAttr(self(this).Node, attr, v.String())
		})
	}
	reflectBool := func(name, attr string) {
		h.accessor(p, name, func(this *goja.Object) goja.Value {
			_, ok := getAttr(self(this).Node, attr)
			return h.vm.ToValue(ok)
		}, func(this *goja.Object, v goja.Value) {
			if v.ToBoolean() {
				setAttr(self(this).Node, attr, "")
			} else {
				removeAttr(self(this).Node, attr)
			}
		})
	}

	h.accessor(p, "tagName", func(this *goja.Object) goja.Value {
		return h.vm.ToValue(strings.ToUpper(self(this).Node.Data))
	}, nil)
	h.accessor(p, "localName", func(this *goja.Object) goja.Value {
		return h.vm.ToValue(self(this).Node.Data)
	}, nil)
	reflect("id", "id")
	reflect("className", "class")
	reflect("title", "title")
	reflect("lang", "lang")
	reflect("name", "name")
	reflect("type", "type")
	reflect("href", "href")
	reflectBool("hidden", "hidden")
	reflectBool("disabled", "disabled")

	h.accessor(p, "dir", func(this *goja.Object) goja.Value {
		v, _ := getAttr(self(this).Node, "dir")
		return h.vm.ToValue(normalizeDir(v))
	}, func(this *goja.Object, v goja.Value) {
		setAttr(self(this).Node, "dir", v.String())
	})

	h.accessor(p, "tabIndex", func(this *goja.Object) goja.Value {
		return h.vm.ToValue(tabIndex(self(this).Node))
	}, func(this *goja.Object, v goja.Value) {
		setAttr(self(this).Node, "tabindex", strconv.FormatInt(v.ToInteger(), 10))
	})

	h.accessor(p, "innerHTML", func(this *goja.Object) goja.Value {
		return h.vm.ToValue(renderInnerHTML(self(this).Node))
	}, func(this *goja.Object, v goja.Value) {
		el := self(this)
		nodes, err := html.ParseFragment(strings.NewReader(stringOrEmpty(v)), el.Node)
		if err != nil {
			h.throwDOMException("SyntaxError", "Failed to parse HTML: %v", err)
		}
		h.removeChildren(el.Node)
		for _, n := range nodes {
			el.Node.AppendChild(n)
		}
	})
	h.accessor(p, "outerHTML", func(this *goja.Object) goja.Value {
		var sb strings.Builder
		if err := html.Render(&sb, self(this).Node); err != nil {
			return h.vm.ToValue("")
		}
		return h.vm.ToValue(sb.String())
	}, nil)
	h.accessor(p, "innerText", func(this *goja.Object) goja.Value {
		return h.vm.ToValue(htmlquery.InnerText(self(this).Node))
	}, func(this *goja.Object, v goja.Value) {
		h.replaceChildrenWithText(self(this).Node, stringOrEmpty(v))
	})

	h.accessor(p, "children", func(this *goja.Object) goja.Value {
		var children []*html.Node
		for c := self(this).Node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				children = append(children, c)
			}
		}
		return h.wrapList(children)
	}, nil)

	h.accessor(p, "value", func(this *goja.Object) goja.Value {
		el := self(this)
		v, ok := el.formValue()
		if !ok {
			return goja.Undefined()
		}
		return h.vm.ToValue(v)
	}, func(this *goja.Object, v goja.Value) {
		el := self(this)
		s := stringOrEmpty(v)
		el.value = &s
	})
	h.accessor(p, "checked", func(this *goja.Object) goja.Value {
		return h.vm.ToValue(self(this).isChecked())
	}, func(this *goja.Object, v goja.Value) {
		b := v.ToBoolean()
		self(this).checked = &b
	})

	h.method(p, "getAttribute", func(call goja.FunctionCall) goja.Value {
		v, ok := getAttr(self(call.This.ToObject(h.vm)).Node, strings.ToLower(call.Argument(0).String()))
		if !ok {
			return goja.Null()
		}
		return h.vm.ToValue(v)
	})
	h.method(p, "setAttribute", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			h.throwTypeError("Failed to execute 'setAttribute' on 'Element': 2 arguments required, but only %d present.", len(call.Arguments))
		}
		setAttr(self(call.This.ToObject(h.vm)).Node, strings.ToLower(call.Argument(0).String()), call.Argument(1).String())
		return goja.Undefined()
	})
	h.method(p, "removeAttribute", func(call goja.FunctionCall) goja.Value {
		removeAttr(self(call.This.ToObject(h.vm)).Node, strings.ToLower(call.Argument(0).String()))
		return goja.Undefined()
	})
	h.method(p, "hasAttribute", func(call goja.FunctionCall) goja.Value {
		_, ok := getAttr(self(call.This.ToObject(h.vm)).Node, strings.ToLower(call.Argument(0).String()))
		return h.vm.ToValue(ok)
	})

	h.method(p, "querySelector", func(call goja.FunctionCall) goja.Value {
		return h.querySelector(self(call.This.ToObject(h.vm)).Node, call.Argument(0).String(), true)
	})
	h.method(p, "querySelectorAll", func(call goja.FunctionCall) goja.Value {
		return h.querySelectorAll(self(call.This.ToObject(h.vm)).Node, call.Argument(0).String(), true)
	})
	h.method(p, "getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		return h.elementsByTagName(self(call.This.ToObject(h.vm)).Node, call.Argument(0).String(), true)
	})
	h.method(p, "getElementsByClassName", func(call goja.FunctionCall) goja.Value {
		return h.elementsByClassName(self(call.This.ToObject(h.vm)).Node, call.Argument(0).String(), true)
	})
	h.method(p, "closest", func(call goja.FunctionCall) goja.Value {
		el := self(call.This.ToObject(h.vm))
		root := h.document.root
		matches, err := queryAll(root, call.Argument(0).String(), false)
		if err != nil {
			h.throwDOMException("SyntaxError", "%s", err.Error())
		}
		set := make(map[*html.Node]bool, len(matches))
		for _, m := range matches {
			set[m] = true
		}
		for n := el.Node; n != nil && n.Type == html.ElementNode; n = n.Parent {
			if set[n] {
				return h.wrap(n)
			}
		}
		return goja.Null()
	})

	h.method(p, "focus", func(call goja.FunctionCall) goja.Value {
		h.focusElement(self(call.This.ToObject(h.vm)).Node)
		return goja.Undefined()
	})
	h.method(p, "blur", func(call goja.FunctionCall) goja.Value {
		el := self(call.This.ToObject(h.vm))
		if h.document.active == el.Node {
			h.focusElement(nil)
		}
		return goja.Undefined()
	})
	h.method(p, "click", func(call goja.FunctionCall) goja.Value {
		h.activate(self(call.This.ToObject(h.vm)))
		return goja.Undefined()
	})
	h.method(p, "scrollIntoView", func(call goja.FunctionCall) goja.Value {
		el := self(call.This.ToObject(h.vm))
		h.logger.Debug("scrollIntoView has no layout to scroll.", zap.String("tag", el.Node.Data))
		return goja.Undefined()
	})
	h.method(p, "getBoundingClientRect", func(call goja.FunctionCall) goja.Value {
		self(call.This.ToObject(h.vm))
		rect := h.vm.NewObject()
		for _, k := range []string{"x", "y", "width", "height", "top", "right", "bottom", "left"} {
			_ = rect.Set(k, 0)
		}
		return rect
	})
}

// -- Queries --

func (h *Host) querySelector(root *html.Node, selector string, scoped bool) goja.Value {
	if root == nil {
		return goja.Null()
	}
	n, err := queryFirst(root, selector, scoped)
	if err != nil {
		h.throwDOMException("SyntaxError", "Failed to execute 'querySelector': %s", err.Error())
	}
	return h.wrap(n)
}

func (h *Host) querySelectorAll(root *html.Node, selector string, scoped bool) goja.Value {
	if root == nil {
		return h.vm.NewArray()
	}
	nodes, err := queryAll(root, selector, scoped)
	if err != nil {
		h.throwDOMException("SyntaxError", "Failed to execute 'querySelectorAll': %s", err.Error())
	}
	return h.wrapList(nodes)
}

func (h *Host) elementsByTagName(root *html.Node, tag string, scoped bool) goja.Value {
	if root == nil {
		return h.vm.NewArray()
	}
	prefix := "//"
	if scoped {
		prefix = ".//"
	}
	xpath := prefix + "*"
	if tag != "*" {
		xpath = fmt.Sprintf("%s*[local-name()=%s]", prefix, xpathLiteral(strings.ToLower(tag)))
	}
	nodes, _ := htmlquery.QueryAll(root, xpath)
	return h.wrapList(nodes)
}

func (h *Host) elementsByClassName(root *html.Node, names string, scoped bool) goja.Value {
	classes := strings.Fields(names)
	if root == nil || len(classes) == 0 {
		return h.vm.NewArray()
	}
	preds := make([]string, len(classes))
	for i, c := range classes {
		preds[i] = classPredicate(c)
	}
	prefix := "//"
	if scoped {
		prefix = ".//"
	}
	nodes, _ := htmlquery.QueryAll(root, prefix+render("*", preds))
	return h.wrapList(nodes)
}

// -- Tree mutation --

func (h *Host) insertNode(parent, child, ref *html.Node) {
	for a := parent; a != nil; a = a.Parent {
		if a == child {
			h.throwDOMException("HierarchyRequestError", "The new child element contains the parent.")
		}
	}
	if child.Parent != nil {
		h.detach(child)
	}
	parent.InsertBefore(child, ref)
}

// detach removes n from its parent and drops focus if it was inside.
func (h *Host) detach(n *html.Node) {
	if n.Parent == nil {
		return
	}
	for a := h.document.active; a != nil; a = a.Parent {
		if a == n {
			h.document.active = nil
			break
		}
	}
	n.Parent.RemoveChild(n)
}

func (h *Host) removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		h.detach(c)
		c = next
	}
}

func (h *Host) replaceChildrenWithText(n *html.Node, text string) {
	h.removeChildren(n)
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func (h *Host) isConnected(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == h.document.root {
			return true
		}
	}
	return false
}

// -- Focus and activation --

func isFocusable(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if _, disabled := getAttr(n, "disabled"); disabled {
		return false
	}
	if _, ok := getAttr(n, "tabindex"); ok {
		return true
	}
	switch n.DataAtom {
	case atom.Button, atom.Input, atom.Select, atom.Textarea:
		return true
	case atom.A, atom.Area:
		_, ok := getAttr(n, "href")
		return ok
	}
	return false
}

// focusElement moves focus to n, or clears it when n is nil, firing the focus event
// sequence: blur, focusout, focus, focusin.
func (h *Host) focusElement(n *html.Node) {
	if n != nil && (!isFocusable(n) || !h.isConnected(n)) {
		return
	}
	prev := h.document.active
	if prev == n {
		return
	}
	h.document.active = n

	var prevObj, nextObj goja.Value = goja.Null(), goja.Null()
	if prev != nil {
		prevObj = h.wrap(prev)
	}
	if n != nil {
		nextObj = h.wrap(n)
	}
	if prev != nil {
		target := prevObj.(*goja.Object)
		h.fire(target, "FocusEvent", "blur", map[string]any{"relatedTarget": nextObj}, true)
		h.fire(target, "FocusEvent", "focusout", map[string]any{"bubbles": true, "relatedTarget": nextObj}, true)
	}
	if n != nil {
		target := nextObj.(*goja.Object)
		h.fire(target, "FocusEvent", "focus", map[string]any{"relatedTarget": prevObj}, true)
		h.fire(target, "FocusEvent", "focusin", map[string]any{"bubbles": true, "relatedTarget": prevObj}, true)
	}
}

// activate runs element.click(): a synthetic click followed by the element's
// activation behaviour.
func (h *Host) activate(el *Element) {
	n := el.Node
	if _, disabled := getAttr(n, "disabled"); disabled {
		return
	}
	isToggle := n.DataAtom == atom.Input && (attrOr(n, "type", "") == "checkbox" || attrOr(n, "type", "") == "radio")
	var before bool
	if isToggle {
		before = el.isChecked()
		after := !before
		if attrOr(n, "type", "") == "radio" {
			after = true
		}
		el.checked = &after
	}

	notCancelled := h.fire(el.Object, "MouseEvent", "click", map[string]any{
		"bubbles":    true,
		"cancelable": true,
		"composed":   true,
		"view":       h.window,
	}, false)

	if !notCancelled {
		if isToggle {
			el.checked = &before
		}
		return
	}
	if isToggle && before != el.isChecked() {
		h.fire(el.Object, "Event", "input", map[string]any{"bubbles": true, "composed": true}, true)
		h.fire(el.Object, "Event", "change", map[string]any{"bubbles": true}, true)
		return
	}
	if n.DataAtom == atom.A {
		if href, ok := getAttr(n, "href"); ok {
			h.location.navigate(href, false)
		}
	}
}

// -- Form state --

func (e *Element) formValue() (string, bool) {
	n := e.Node
	switch n.DataAtom {
	case atom.Input:
		if e.value != nil {
			return *e.value, true
		}
		if v, ok := getAttr(n, "value"); ok {
			return v, true
		}
		if t := attrOr(n, "type", ""); t == "checkbox" || t == "radio" {
			return "on", true
		}
		return "", true
	case atom.Textarea:
		if e.value != nil {
			return *e.value, true
		}
		return htmlquery.InnerText(n), true
	case atom.Select:
		if e.value != nil {
			return *e.value, true
		}
		var first *html.Node
		for _, opt := range htmlquery.Find(n, ".//option") {
			if first == nil {
				first = opt
			}
			if _, ok := getAttr(opt, "selected"); ok {
				return optionValue(opt), true
			}
		}
		if first != nil {
			return optionValue(first), true
		}
		return "", true
	case atom.Option:
		return optionValue(n), true
	case atom.Button, atom.Output, atom.Data, atom.Li, atom.Meter, atom.Progress, atom.Param:
		return attrOr(n, "value", ""), true
	}
	return "", false
}

func (e *Element) isChecked() bool {
	if e.checked != nil {
		return *e.checked
	}
	_, ok := getAttr(e.Node, "checked")
	return ok
}

func optionValue(n *html.Node) string {
	if v, ok := getAttr(n, "value"); ok {
		return v
	}
	return strings.TrimSpace(htmlquery.InnerText(n))
}

// -- Helpers --

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func attrOr(n *html.Node, name, fallback string) string {
	if v, ok := getAttr(n, name); ok {
		return strings.ToLower(v)
	}
	return fallback
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func normalizeDir(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "ltr":
		return "ltr"
	case "rtl":
		return "rtl"
	case "auto":
		return "auto"
	}
	return ""
}

func tabIndex(n *html.Node) int64 {
	if v, ok := getAttr(n, "tabindex"); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i
		}
	}
	if isFocusable(n) {
		return 0
	}
	return -1
}

func nodeType(n *html.Node) int {
	switch n.Type {
	case html.ElementNode:
		return 1
	case html.TextNode:
		return 3
	case html.CommentNode:
		return 8
	case html.DocumentNode:
		return 9
	case html.DoctypeNode:
		return 10
	}
	return 0
}

func nodeName(n *html.Node) string {
	switch n.Type {
	case html.ElementNode:
		return strings.ToUpper(n.Data)
	case html.TextNode:
		return "#text"
	case html.CommentNode:
		return "#comment"
	case html.DocumentNode:
		return "#document"
	case html.DoctypeNode:
		return n.Data
	}
	return ""
}

func renderInnerHTML(node *html.Node) string {
	var sb strings.Builder
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			break
		}
	}
	return sb.String()
}

func cloneHTMLNode(n *html.Node, deep bool) *html.Node {
	if n == nil {
		return nil
	}
	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      make([]html.Attribute, len(n.Attr)),
	}
	copy(clone.Attr, n.Attr)
	if deep {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			clone.AppendChild(cloneHTMLNode(c, true))
		}
	}
	return clone
}

// stringOrEmpty converts null and undefined to "" the way DOM string setters with
// [LegacyNullToEmptyString] do.
func stringOrEmpty(v goja.Value) string {
	if v == nil || goja.IsNull(v) || goja.IsUndefined(v) {
		return ""
	}
	return v.String()
}
