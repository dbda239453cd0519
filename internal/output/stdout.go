package output

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jakopako/flowcheck/internal/inspect"
	"github.com/olekukonko/tablewriter"
)

// StdoutWriter prints reports as text followed by a found/total tally.
type StdoutWriter struct {
	out    io.Writer
	logger *slog.Logger
}

// NewStdoutWriter returns a new StdoutWriter
func NewStdoutWriter(w io.Writer) *StdoutWriter {
	return &StdoutWriter{
		out:    w,
		logger: slog.With(slog.String("writer", string(STDOUT_WRITER_TYPE))),
	}
}

func (w *StdoutWriter) Write(reportChan <-chan *inspect.Report) {
	var reports []*inspect.Report
	for r := range reportChan {
		if _, err := io.WriteString(w.out, FormatReport(r)); err != nil {
			w.logger.Error(fmt.Sprintf("error while writing report for %s: %v", r.URL, err))
		}
		reports = append(reports, r)
	}
	if err := WriteTally(w.out, reports); err != nil {
		w.logger.Error(fmt.Sprintf("error while writing tally: %v", err))
	}
}

// FormatReport renders r as human readable text.
func FormatReport(r *inspect.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nInspecting %s (%s)\n%s\n", r.Page, r.URL, strings.Repeat("=", 80))
	if r.Error != "" {
		fmt.Fprintf(&b, "  error: %s\n", r.Error)
		return b.String()
	}
	for _, f := range r.Findings {
		switch {
		case f.Found:
			fmt.Fprintf(&b, "+ %s: %d element(s) with %s\n", f.Name, f.Count, f.Locator)
			for i, m := range f.Matches {
				fmt.Fprintf(&b, "    [%d] %s\n", i+1, formatMatch(m))
			}
		case f.Optional:
			fmt.Fprintf(&b, "? %s: not found (optional)\n", f.Name)
		default:
			fmt.Fprintf(&b, "- %s: not found\n", f.Name)
		}
		for _, e := range f.Errors {
			fmt.Fprintf(&b, "    error: %s\n", e)
		}
		if len(f.Suggestions) > 0 {
			quoted := make([]string, len(f.Suggestions))
			for i, s := range f.Suggestions {
				quoted[i] = strconv.Quote(s)
			}
			fmt.Fprintf(&b, "    did you mean: %s\n", strings.Join(quoted, ", "))
		}
	}
	found, total := r.Tally()
	fmt.Fprintf(&b, "%s: %d/%d elements found\n", r.Page, found, total)
	return b.String()
}

func formatMatch(m inspect.Match) string {
	var b strings.Builder
	b.WriteString("<" + m.Tag)
	for _, a := range [][2]string{{"id", m.ID}, {"class", m.Class}, {"name", m.Name}, {"type", m.Type}, {"placeholder", m.Placeholder}} {
		if a[1] != "" {
			fmt.Fprintf(&b, " %s=%q", a[0], a[1])
		}
	}
	b.WriteString(">")
	if m.Text != "" {
		b.WriteString(" " + strconv.Quote(m.Text))
	}
	return b.String()
}

// WriteTally writes one row per report with the number of found elements.
func WriteTally(w io.Writer, reports []*inspect.Report) error {
	table := tablewriter.NewWriter(w)
	table.Header("Page", "URL", "Found", "Total")
	var allFound, allTotal int
	for _, r := range reports {
		found, total := r.Tally()
		allFound += found
		allTotal += total
		if err := table.Append([]string{r.Page, r.URL, strconv.Itoa(found), strconv.Itoa(total)}); err != nil {
			return err
		}
	}
	table.Footer("Total", "", strconv.Itoa(allFound), strconv.Itoa(allTotal))
	return table.Render()
}
