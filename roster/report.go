package roster

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"

	"github.com/warp/duty-roster/core"
)

// Reporter renders a roster for a period. Implementations only format;
// the order of entries is fixed by Service.Roster.
type Reporter interface {
	Render(w io.Writer, period core.Period, entries []Entry) error
	ContentType() string
}

// Reporters indexes the built-in reporters by format name.
var Reporters = map[string]Reporter{
	"text": TextReporter{},
	"xlsx": XLSXReporter{},
}

// =============================================================================
// TEXT
// =============================================================================

// TextReporter writes an aligned plain-text table.
type TextReporter struct{}

func (TextReporter) ContentType() string { return "text/plain; charset=utf-8" }

func (TextReporter) Render(w io.Writer, period core.Period, entries []Entry) error {
	fmt.Fprintf(w, "Guard duty roster %s to %s (%d shifts)\n\n", period.Start, period.End, len(entries))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDAY\tSHIFT\tSERVICE NO\tNAME")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Date, e.Date.Weekday().String()[:3], e.Shift.Label(), e.Person.ServiceNumber, e.Person.DisplayName())
	}
	return tw.Flush()
}

// =============================================================================
// XLSX
// =============================================================================

// XLSXReporter writes a single-sheet workbook: a title row, a header row
// and one row per shift.
type XLSXReporter struct{}

func (XLSXReporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXReporter) Render(w io.Writer, period core.Period, entries []Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Roster"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	headers := []string{"Date", "Day", "Shift", "Service No", "Rank", "Name"}
	widths := []float64{12, 8, 12, 16, 8, 28}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	f.SetCellValue(sheet, "A1", fmt.Sprintf("Guard duty roster %s to %s", period.Start, period.End))
	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, h)
	}
	if err := f.SetCellStyle(sheet, "A2", lastCol+"2", headerStyle); err != nil {
		return err
	}

	for r, e := range entries {
		row := []any{
			e.Date.String(),
			e.Date.Weekday().String()[:3],
			e.Shift.Label(),
			string(e.Person.ServiceNumber),
			string(e.Person.Rank),
			e.Person.LastName + " " + e.Person.FirstName,
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+3)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}
