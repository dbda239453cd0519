package utils

import (
	"testing"
)

func TestShortenString(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"hello world", 5, "hello..."},
		{"hello", 10, "hello"},
		{"", 3, ""},
		{"abcdef", 0, "abcdef"},
		{"abcdef", 6, "abcdef"},
		{"abcdef", 3, "abc..."},
		{"★★★★", 2, "★★..."},
	}

	for _, tt := range tests {
		result := ShortenString(tt.input, tt.length)
		if result != tt.expected {
			t.Errorf("ShortenString(%q, %d) = %q; want %q", tt.input, tt.length, result, tt.expected)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"Book Now", 4, "Book"},
		{"Book", 50, "Book"},
		{"Dr. Müller", 6, "Dr. Mü"},
		{"", 5, ""},
	}

	for _, tt := range tests {
		result := Truncate(tt.input, tt.length)
		if result != tt.expected {
			t.Errorf("Truncate(%q, %d) = %q; want %q", tt.input, tt.length, result, tt.expected)
		}
	}
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"TestLogin/invalid_credentials", "TestLogin_invalid_credentials"},
		{"login page.v2", "login_page.v2"},
		{"  ", "unnamed"},
	}

	for _, tt := range tests {
		result := SafeFilename(tt.input)
		if result != tt.expected {
			t.Errorf("SafeFilename(%q) = %q; want %q", tt.input, result, tt.expected)
		}
	}
}

func TestHSVToRGB(t *testing.T) {
	tests := []struct {
		h, s, v float64
		r, g, b int32
	}{
		{0, 1, 1, 255, 0, 0},
		{0.5, 1, 1, 0, 255, 255},
		{0, 0, 1, 255, 255, 255},
	}

	for _, tt := range tests {
		r, g, b := HSVToRGB(tt.h, tt.s, tt.v)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("HSVToRGB(%v, %v, %v) = %d,%d,%d; want %d,%d,%d", tt.h, tt.s, tt.v, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}
