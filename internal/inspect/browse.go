package inspect

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/jakopako/flowcheck/internal/utils"
	"github.com/rivo/tview"
)

var browseHeader = []string{"page", "element", "found", "locator", "count", "first match"}

type browseRow struct {
	cells   []string
	found   bool
	page    int
	finding *Finding
}

func browseRows(reports []*Report) []browseRow {
	var rows []browseRow
	for i, r := range reports {
		for j := range r.Findings {
			f := &r.Findings[j]
			loc, first := "", ""
			if f.Locator != nil {
				loc = f.Locator.String()
			}
			if len(f.Matches) > 0 {
				first = f.Matches[0].Text
				if first == "" {
					first = "<" + f.Matches[0].Tag + ">"
				}
			} else if len(f.Suggestions) > 0 {
				first = "did you mean " + strconv.Quote(f.Suggestions[0])
			}
			found := "no"
			if f.Found {
				found = "yes"
			} else if f.Optional {
				found = "optional"
			}
			rows = append(rows, browseRow{
				cells:   []string{r.Page, f.Name, found, loc, strconv.Itoa(f.Count), first},
				found:   f.Found,
				page:    i,
				finding: f,
			})
		}
	}
	return rows
}

// pageColors gives every page its own hue so that rows of one page stand
// out as a block.
func pageColors(n int) []tcell.Color {
	colors := make([]tcell.Color, n)
	for i := range colors {
		r, g, b := utils.HSVToRGB(0.25+0.5*float64(i)/float64(max(n, 1)), 0.5, 0.96)
		colors[i] = tcell.NewRGBColor(r, g, b)
	}
	return colors
}

// Browse shows the reports in an interactive table. The details of the
// selected finding are shown below the table. Escape quits.
func Browse(reports []*Report) error {
	app := tview.NewApplication()
	table := tview.NewTable().SetBorders(false).SetFixed(1, 2)
	details := tview.NewTextView().SetDynamicColors(false)
	details.SetBorder(true).SetTitle("details")

	for c, h := range browseHeader {
		table.SetCell(0, c, tview.NewTableCell(h).
			SetTextColor(tcell.ColorBlue).
			SetSelectable(false).
			SetAlign(tview.AlignCenter))
	}
	rows := browseRows(reports)
	colors := pageColors(len(reports))
	for r, row := range rows {
		for c, cell := range row.cells {
			color := colors[row.page]
			if !row.found {
				color = tcell.ColorRed
				if row.finding.Optional {
					color = tcell.ColorOrange
				}
			}
			table.SetCell(r+1, c, tview.NewTableCell(utils.ShortenString(cell, 60)).SetTextColor(color))
		}
	}

	table.SetSelectable(true, false)
	table.SetSelectionChangedFunc(func(row, column int) {
		if row < 1 || row > len(rows) {
			return
		}
		b, err := json.MarshalIndent(rows[row-1].finding, "", "  ")
		if err != nil {
			details.SetText(err.Error())
			return
		}
		details.SetText(string(b))
	})
	table.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEscape {
			app.Stop()
		}
	})
	if len(rows) > 0 {
		table.Select(1, 0)
	}

	grid := tview.NewGrid().SetRows(-2, -1).SetColumns(-1).SetBorders(false).
		AddItem(table, 0, 0, 1, 1, 0, 0, true).
		AddItem(details, 1, 0, 1, 1, 0, 0, false)
	grid.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyTab {
			if details.HasFocus() {
				app.SetFocus(table)
			} else {
				app.SetFocus(details)
			}
			return nil
		}
		return event
	})
	if err := app.SetRoot(grid, true).SetFocus(table).Run(); err != nil {
		return fmt.Errorf("failed to run report browser: %w", err)
	}
	return nil
}
