package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"vidtriage/internal/batch"
	"vidtriage/internal/logging"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderTally formats the end-of-batch summary, followed by one row per
// failed file when there were failures.
func renderTally(label string, tally batch.Tally, showSaved bool) string {
	rows := [][]string{
		{"Selected", strconv.Itoa(tally.Selected)},
		{"Processed", strconv.Itoa(tally.Processed)},
		{"Skipped", strconv.Itoa(tally.Skipped)},
		{"Failed", strconv.Itoa(tally.Failed)},
	}
	if showSaved {
		rows = append(rows, []string{"Saved", logging.FormatBytes(tally.SavedBytes)})
	}
	rows = append(rows, []string{"Elapsed", tally.Elapsed.Round(time.Second).String()})

	var b strings.Builder
	b.WriteString(renderTable([]string{label, "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	if len(tally.Failures) > 0 {
		failRows := make([][]string, 0, len(tally.Failures))
		for _, f := range tally.Failures {
			failRows = append(failRows, []string{filepath.Base(f.Path), f.Stage, fmt.Sprint(f.Err)})
		}
		b.WriteString("\n")
		b.WriteString(renderTable([]string{"File", "Stage", "Error"}, failRows, nil))
	}
	return b.String()
}
