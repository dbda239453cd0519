package driver

import (
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/jakopako/flowcheck/internal/locator"
	"golang.org/x/net/html"
)

// Helpers emulating the bits of browser behaviour the static driver needs
// on a parsed document.

func attr(n *html.Node, key string) string {
	return htmlquery.SelectAttr(n, key)
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			attrs = append(attrs, a)
		}
	}
	n.Attr = attrs
}

func inputType(n *html.Node) string {
	t := strings.ToLower(attr(n, "type"))
	if t == "" {
		return "text"
	}
	return t
}

func closest(n *html.Node, tag string) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.Data == tag {
			return n
		}
	}
	return nil
}

func root(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// formOwner returns the form a control belongs to, either through its form
// attribute or as its ancestor.
func formOwner(n *html.Node) *html.Node {
	if id := attr(n, "form"); id != "" {
		return htmlquery.FindOne(root(n), "//form[@id="+locator.XPathLiteral(id)+"]")
	}
	return closest(n, "form")
}

func disabled(n *html.Node) bool {
	if hasAttr(n, "disabled") {
		return true
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "fieldset" && hasAttr(p, "disabled") {
			return true
		}
	}
	return false
}

func editable(n *html.Node) bool {
	if disabled(n) || hasAttr(n, "readonly") {
		return false
	}
	switch n.Data {
	case "textarea":
		return true
	case "input":
		switch inputType(n) {
		case "checkbox", "radio", "submit", "button", "reset", "image", "file", "hidden":
			return false
		}
		return true
	}
	return false
}

func value(n *html.Node) string {
	switch n.Data {
	case "textarea":
		return htmlquery.InnerText(n)
	case "select":
		opts := htmlquery.Find(n, ".//option")
		for _, o := range opts {
			if hasAttr(o, "selected") {
				return optionValue(o)
			}
		}
		if len(opts) > 0 && !hasAttr(n, "multiple") {
			return optionValue(opts[0])
		}
		return ""
	case "option":
		return optionValue(n)
	}
	return attr(n, "value")
}

func setValue(n *html.Node, v string) {
	if n.Data == "textarea" {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: v})
		return
	}
	setAttr(n, "value", v)
}

func optionValue(o *html.Node) string {
	if hasAttr(o, "value") {
		return attr(o, "value")
	}
	return strings.Join(strings.Fields(htmlquery.InnerText(o)), " ")
}

func selectOption(o *html.Node) {
	if sel := closest(o, "select"); sel != nil && !hasAttr(sel, "multiple") {
		for _, other := range htmlquery.Find(sel, ".//option") {
			removeAttr(other, "selected")
		}
	}
	setAttr(o, "selected", "selected")
}

func checkRadio(n *html.Node) {
	if name := attr(n, "name"); name != "" {
		scope := formOwner(n)
		if scope == nil {
			scope = root(n)
		}
		for _, r := range htmlquery.Find(scope, ".//input[@type='radio' and @name="+locator.XPathLiteral(name)+"]") {
			removeAttr(r, "checked")
		}
	}
	setAttr(n, "checked", "checked")
}

// formData builds the form data set of form. The submitter, if it has a
// name, contributes its own value; other buttons never do.
func formData(form, submitter *html.Node) url.Values {
	data := url.Values{}
	for _, n := range htmlquery.Find(form, ".//input | .//textarea | .//select | .//button") {
		name := attr(n, "name")
		if name == "" || disabled(n) {
			continue
		}
		switch n.Data {
		case "button":
			if n == submitter {
				data.Add(name, attr(n, "value"))
			}
		case "input":
			switch inputType(n) {
			case "submit", "image":
				if n == submitter {
					data.Add(name, attr(n, "value"))
				}
			case "checkbox", "radio":
				if hasAttr(n, "checked") {
					v := attr(n, "value")
					if !hasAttr(n, "value") {
						v = "on"
					}
					data.Add(name, v)
				}
			case "button", "reset", "file":
			default:
				data.Add(name, attr(n, "value"))
			}
		case "textarea":
			data.Add(name, value(n))
		case "select":
			found := false
			for _, o := range htmlquery.Find(n, ".//option") {
				if hasAttr(o, "selected") && !disabled(o) {
					data.Add(name, optionValue(o))
					found = true
				}
			}
			if !found && !hasAttr(n, "multiple") {
				if v := value(n); v != "" {
					data.Add(name, v)
				}
			}
		}
	}
	return data
}

// visible approximates css visibility from the markup alone.
func visible(n *html.Node) bool {
	if n.Data == "input" && inputType(n) == "hidden" {
		return false
	}
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		switch p.Data {
		case "head", "script", "style", "template", "title", "noscript":
			return false
		}
		if hasAttr(p, "hidden") {
			return false
		}
		style := strings.ReplaceAll(strings.ToLower(attr(p, "style")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}
