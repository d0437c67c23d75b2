package main

import (
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"pdfsuite/internal/models"
)

// inlineErrorLimit bounds the error column in result tables
const inlineErrorLimit = 40

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
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
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

// truncate shortens s to limit runes, marking the cut with "..."
func truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// renderRecords lays out job records; full error messages only when verbose
func renderRecords(records []models.JobRecord, verbose bool) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		detail := ""
		switch rec.Status {
		case models.StatusDone:
			detail = rec.OutputPath
			if detail == "" {
				detail = rec.OutputDir
			}
		case models.StatusFailed:
			detail = rec.Error
			if !verbose {
				detail = truncate(detail, inlineErrorLimit)
			}
		}
		rows = append(rows, []string{
			rec.DisplayName,
			string(rec.Descriptor.Kind),
			string(rec.Status),
			formatDuration(rec),
			detail,
		})
	}
	return renderTable(
		[]string{"File", "Type", "Status", "Time", "Output / Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func formatDuration(rec models.JobRecord) string {
	d := rec.Duration()
	if d == 0 {
		return "-"
	}
	return d.Round(10 * time.Millisecond).String()
}

func displayName(path string) string {
	return filepath.Base(path)
}
