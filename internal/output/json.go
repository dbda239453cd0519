package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/jakopako/flowcheck/internal/inspect"
)

// JSONWriter writes all reports as one json array.
type JSONWriter struct {
	out    io.Writer
	logger *slog.Logger
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{
		out:    w,
		logger: slog.With(slog.String("writer", string(JSON_WRITER_TYPE))),
	}
}

func (w *JSONWriter) Write(reportChan <-chan *inspect.Report) {
	reports := collect(reportChan)
	b, err := encode(reports)
	if err != nil {
		w.logger.Error(fmt.Sprintf("error while encoding reports: %v", err))
		return
	}
	if _, err := w.out.Write(b); err != nil {
		w.logger.Error(fmt.Sprintf("error while writing reports: %v", err))
	}
}

func collect(reportChan <-chan *inspect.Report) []*inspect.Report {
	reports := []*inspect.Report{}
	for r := range reportChan {
		reports = append(reports, r)
	}
	return reports
}

// encode marshals v to indented json. Html characters in element texts are
// kept as they are.
func encode(v any) ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	var indentBuffer bytes.Buffer
	if err := json.Indent(&indentBuffer, buffer.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return indentBuffer.Bytes(), nil
}
