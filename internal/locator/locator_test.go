package locator

import (
	"testing"
)

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Sign In", "'Sign In'"},
		{"Doctor's", `"Doctor's"`},
		{`it's "x"`, `concat('it', "'", 's "x"')`},
		{"", "''"},
	}
	for _, tt := range tests {
		if got := XPathLiteral(tt.input); got != tt.expected {
			t.Errorf("XPathLiteral(%q) = %s; want %s", tt.input, got, tt.expected)
		}
	}
}

func TestTextContains(t *testing.T) {
	l := TextContains("button", "Sign In")
	expected := Locator{Kind: KindStructural, Pattern: "//button[contains(text(), 'Sign In')]"}
	if l != expected {
		t.Fatalf("expected %v but got %v", expected, l)
	}
	if l := TextContains("", "Logout"); l.Pattern != "//*[contains(text(), 'Logout')]" {
		t.Fatalf("unexpected pattern %s", l.Pattern)
	}
}

func TestSortByPriority(t *testing.T) {
	candidates := []Locator{
		Tag("select"),
		XPath("//a"),
		Attr("input[type='email']"),
		XPath("//b"),
		Attr("#x"),
	}
	expected := []Locator{
		Attr("input[type='email']"),
		Attr("#x"),
		XPath("//a"),
		XPath("//b"),
		Tag("select"),
	}
	sorted := SortByPriority(candidates)
	for i, e := range expected {
		if sorted[i] != e {
			t.Fatalf("expected %v but got %v", expected, sorted)
		}
	}
	if candidates[0] != Tag("select") {
		t.Fatalf("SortByPriority must not modify its input")
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{KindAttribute, KindStructural, KindTag} {
		if !k.Valid() {
			t.Errorf("expected %s to be valid", k)
		}
	}
	if Kind("css").Valid() {
		t.Errorf("expected css to be invalid")
	}
}
