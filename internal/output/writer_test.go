package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jakopako/flowcheck/internal/inspect"
	"github.com/jakopako/flowcheck/internal/locator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReports() []*inspect.Report {
	loc := locator.Attr("input[type='email']")
	return []*inspect.Report{
		{
			Page: "login",
			URL:  "http://localhost:5173/login",
			Findings: []inspect.Finding{
				{Name: "email", Found: true, Locator: &loc, Count: 1, Matches: []inspect.Match{{Tag: "input", Name: "email", Type: "email", Text: "<b>"}}},
				{Name: "error", Optional: true},
				{Name: "submit", Suggestions: []string{"Sign In"}, Errors: []string{"bad xpath"}},
			},
		},
		{Page: "profile", URL: "http://localhost:5173/patient/profile", Error: "connection refused"},
	}
}

func feed(reports []*inspect.Report) <-chan *inspect.Report {
	c := make(chan *inspect.Report, len(reports))
	for _, r := range reports {
		c <- r
	}
	close(c)
	return c
}

func TestNewWriter(t *testing.T) {
	tests := []struct {
		wc      WriterConfig
		wantErr bool
	}{
		{WriterConfig{Type: STDOUT_WRITER_TYPE}, false},
		{WriterConfig{}, false},
		{WriterConfig{Type: JSON_WRITER_TYPE}, false},
		{WriterConfig{Type: FILE_WRITER_TYPE}, true},
		{WriterConfig{Type: FILE_WRITER_TYPE, FileDir: t.TempDir()}, false},
		{WriterConfig{Type: "api"}, true},
	}
	for _, tt := range tests {
		_, err := NewWriter(&tt.wc, &bytes.Buffer{})
		if (err != nil) != tt.wantErr {
			t.Errorf("NewWriter(%+v) error = %v, wantErr %v", tt.wc, err, tt.wantErr)
		}
	}
}

func TestFormatReport(t *testing.T) {
	out := FormatReport(sampleReports()[0])
	assert.Contains(t, out, "+ email: 1 element(s) with attribute(input[type='email'])")
	assert.Contains(t, out, `[1] <input name="email" type="email"> "<b>"`)
	assert.Contains(t, out, "? error: not found (optional)")
	assert.Contains(t, out, "- submit: not found")
	assert.Contains(t, out, "error: bad xpath")
	assert.Contains(t, out, `did you mean: "Sign In"`)
	assert.Contains(t, out, "login: 1/3 elements found")

	out = FormatReport(sampleReports()[1])
	assert.Contains(t, out, "error: connection refused")
}

func TestStdoutWriter(t *testing.T) {
	var buf bytes.Buffer
	NewStdoutWriter(&buf).Write(feed(sampleReports()))
	out := buf.String()
	assert.Contains(t, out, "login: 1/3 elements found")
	assert.Contains(t, out, "http://localhost:5173/patient/profile")
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	NewJSONWriter(&buf).Write(feed(sampleReports()))
	assert.Contains(t, buf.String(), `"text": "<b>"`)

	var got []*inspect.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, sampleReports()[0], got[0])
}

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFileWriter(&WriterConfig{Type: FILE_WRITER_TYPE, FileDir: filepath.Join(dir, "out")})
	require.NoError(t, err)
	w.Write(feed(sampleReports()))

	b, err := os.ReadFile(filepath.Join(dir, "out", reportsFilename))
	require.NoError(t, err)
	var got []*inspect.Report
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Len(t, got, 2)

	text, err := os.ReadFile(filepath.Join(dir, "out", textFilename))
	require.NoError(t, err)
	assert.Contains(t, string(text), "login: 1/3 elements found")
}
