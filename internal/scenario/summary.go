package scenario

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jakopako/flowcheck/internal/utils"
	"github.com/olekukonko/tablewriter"
)

// Tally counts results per verdict.
func Tally(results []Result) map[Verdict]int {
	t := map[Verdict]int{Pass: 0, Fail: 0, Skip: 0}
	for _, r := range results {
		t[r.Verdict]++
	}
	return t
}

// PrintSummary writes one row per result and a totals footer to w.
func PrintSummary(w io.Writer, results []Result) error {
	table := tablewriter.NewWriter(w)
	table.Header("Scenario", "Verdict", "Duration", "Reason")
	for _, r := range results {
		row := []string{r.Name, string(r.Verdict), r.Duration.Round(time.Millisecond).String(), shorten(r.Reason)}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	t := Tally(results)
	table.Footer("Total", fmt.Sprintf("%d", len(results)), "", fmt.Sprintf("pass %d fail %d skip %d", t[Pass], t[Fail], t[Skip]))
	return table.Render()
}

func shorten(reason string) string {
	if i := strings.IndexByte(reason, '\n'); i >= 0 {
		reason = reason[:i]
	}
	return utils.ShortenString(reason, 77)
}
