// Package locator describes how elements are found on a page and resolves
// ordered lists of candidate locators against a live session.
package locator

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is the selector language of a Locator.
type Kind string

const (
	// KindAttribute is a CSS selector matching on exact attribute values,
	// eg. input[type='email'] or button.time-slot.
	KindAttribute Kind = "attribute"
	// KindStructural is an XPath expression matching on document structure
	// or visible text, eg. //button[contains(text(), 'Sign In')].
	KindStructural Kind = "structural"
	// KindTag matches on the tag name only.
	KindTag Kind = "tag"
)

// kindPriority is the fixed order in which kinds are tried when the caller
// does not impose its own order (see SortByPriority).
var kindPriority = []Kind{KindAttribute, KindStructural, KindTag}

func (k Kind) Valid() bool {
	return slices.Contains(kindPriority, k)
}

// Locator is an immutable description of how to find zero or more elements.
// Two locators are equal if their fields are equal.
type Locator struct {
	Kind    Kind   `yaml:"kind" json:"kind"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

func (l Locator) String() string {
	return fmt.Sprintf("%s(%s)", l.Kind, l.Pattern)
}

// Attr returns a locator for the given css selector.
func Attr(css string) Locator {
	return Locator{Kind: KindAttribute, Pattern: css}
}

// XPath returns a locator for the given xpath expression.
func XPath(expr string) Locator {
	return Locator{Kind: KindStructural, Pattern: expr}
}

// Tag returns a locator matching all elements with the given tag name.
func Tag(name string) Locator {
	return Locator{Kind: KindTag, Pattern: strings.ToLower(name)}
}

// TextContains returns a structural locator for elements with the given tag
// (or any tag if tag is empty) whose own text contains substr.
func TextContains(tag, substr string) Locator {
	if tag == "" {
		tag = "*"
	}
	return XPath(fmt.Sprintf("//%s[contains(text(), %s)]", tag, XPathLiteral(substr)))
}

// XPathLiteral quotes s so that it can be embedded in an xpath expression.
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// SortByPriority returns a copy of candidates ordered by kind priority
// (attribute, structural, tag). The relative order of candidates of the same
// kind is kept.
func SortByPriority(candidates []Locator) []Locator {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b Locator) int {
		return slices.Index(kindPriority, a.Kind) - slices.Index(kindPriority, b.Kind)
	})
	return sorted
}

// Describe renders a list of candidates for log and error messages.
func Describe(candidates []Locator) string {
	strs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		strs = append(strs, c.String())
	}
	return "[" + strings.Join(strs, ", ") + "]"
}
