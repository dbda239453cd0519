package output

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/jakopako/flowcheck/internal/inspect"
)

const (
	reportsFilename = "reports.json"
	textFilename    = "reports.txt"
)

// FileWriter represents a writer that writes the json reports and their
// text rendering to a directory.
type FileWriter struct {
	*WriterConfig
	logger *slog.Logger
}

// NewFileWriter returns a new FileWriter
func NewFileWriter(wc *WriterConfig) (*FileWriter, error) {
	if wc.FileDir == "" {
		return nil, errors.New("filedir needs to be specified for the FileWriter")
	}

	if err := os.MkdirAll(wc.FileDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", wc.FileDir, err)
	}

	return &FileWriter{
		WriterConfig: wc,
		logger:       slog.With(slog.String("writer", string(FILE_WRITER_TYPE))),
	}, nil
}

func (w *FileWriter) Write(reportChan <-chan *inspect.Report) {
	reports := collect(reportChan)
	b, err := encode(reports)
	if err != nil {
		w.logger.Error(fmt.Sprintf("error while encoding reports: %v", err))
		return
	}
	filepath := path.Join(w.FileDir, reportsFilename)
	if err := os.WriteFile(filepath, b, 0644); err != nil {
		w.logger.Error(fmt.Sprintf("error while writing reports json to file: %v", err))
		return
	}

	var text strings.Builder
	for _, r := range reports {
		text.WriteString(FormatReport(r))
	}
	if err := WriteTally(&text, reports); err != nil {
		w.logger.Error(fmt.Sprintf("error while writing tally: %v", err))
	}
	textpath := path.Join(w.FileDir, textFilename)
	if err := os.WriteFile(textpath, []byte(text.String()), 0644); err != nil {
		w.logger.Error(fmt.Sprintf("error while writing reports text to file: %v", err))
		return
	}
	w.logger.Info(fmt.Sprintf("wrote %d reports to %s", len(reports), w.FileDir))
}
