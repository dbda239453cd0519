// Package output provides the writers inspection reports are handed to.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/jakopako/flowcheck/internal/inspect"
)

// Writer defines the interface for all writers that are responsible
// for writing inspection reports to a specific output.
type Writer interface {
	// Write consumes reports until the channel is closed. Write errors are
	// logged, a diagnostic run never fails because of them.
	Write(reportChan <-chan *inspect.Report)
}

// WriterConfig defines the necessary parameters to make a new writer.
type WriterConfig struct {
	Type    WriterType `yaml:"type" env:"FLOWCHECK_OUTPUT" env-default:"stdout"`
	FileDir string     `yaml:"filedir" env:"FLOWCHECK_OUTPUT_DIR"`
}

// WriterType encapsulates the type of a writer
// See below constants for possible types
type WriterType string

const (
	STDOUT_WRITER_TYPE WriterType = "stdout"
	JSON_WRITER_TYPE   WriterType = "json"
	FILE_WRITER_TYPE   WriterType = "file"
)

// NewWriter returns a new writer depending on the writer type. stdout and
// json writers write to w, os.Stdout if w is nil.
func NewWriter(wc *WriterConfig, w io.Writer) (Writer, error) {
	if w == nil {
		w = os.Stdout
	}
	switch wc.Type {
	case STDOUT_WRITER_TYPE, "":
		return NewStdoutWriter(w), nil
	case JSON_WRITER_TYPE:
		return NewJSONWriter(w), nil
	case FILE_WRITER_TYPE:
		return NewFileWriter(wc)
	default:
		return nil, fmt.Errorf("writer of type '%s' not implemented", wc.Type)
	}
}
