// Package ui renders command output for the terminal.
package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"shufflebench/internal/benchmark"
	"shufflebench/internal/db"
	"shufflebench/internal/relation"
	"shufflebench/internal/report"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Title renders a section heading.
func Title(s string) string {
	return titleStyle.Render(s)
}

// Warn renders a warning line.
func Warn(s string) string {
	return warnStyle.Render(s)
}

// Status renders "ok" or the error text.
func Status(err error) string {
	if err == nil {
		return okStyle.Render("ok")
	}
	return failStyle.Render(err.Error())
}

// Table renders rows below a header row inside a rounded border.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}

// ResultsTable lists generated relations.
func ResultsTable(results []relation.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Spec.Name,
			r.Spec.Type.String(),
			humanize.Comma(r.Spec.Count),
			humanize.IBytes(uint64(r.Bytes)),
			r.Duration.Round(time.Millisecond).String(),
			Status(r.Err),
		})
	}
	return Table([]string{"Relation", "Type", "Tuples", "Size", "Duration", "Status"}, rows)
}

// WriteOutTable lists extracted write-out measurements.
func WriteOutTable(rows []benchmark.WriteOut) string {
	out := make([][]string, 0, len(rows))
	for _, w := range rows {
		out = append(out, []string{
			w.Mode(),
			strconv.Itoa(w.TupleBytes) + "B",
			strconv.Itoa(w.Partitions),
			strconv.Itoa(w.Threads),
			humanize.Comma(w.WrittenTuples),
		})
	}
	return Table([]string{"Mode", "Tuple", "Partitions", "Threads", "Written tuples"}, out)
}

// SummaryTable lists the best throughput per group and benchmark.
func SummaryTable(summaries []benchmark.Summary, f *report.Formatter) string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		speedup := "-"
		if s.Speedup > 0 {
			speedup = f.Float(s.Speedup) + "x"
		}
		rows = append(rows, []string{
			s.Group,
			s.Benchmark,
			strconv.Itoa(s.Threads),
			f.Float(s.TimeSec),
			f.Sci(s.Throughput),
			speedup,
		})
	}
	return Table([]string{"Group", "Benchmark", "Threads", "Time (s)", "Tuples/s", "Speedup"}, rows)
}

// RunsTable lists archived runs.
func RunsTable(runs []db.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.Source,
			r.Input,
			humanize.Time(r.CreatedAt),
			strconv.Itoa(r.Records),
			issues(r.Issues),
			strconv.Itoa(r.WriteOuts),
		})
	}
	return Table([]string{"Run", "Source", "Input", "Created", "Records", "Issues", "Write-outs"}, rows)
}

func issues(n int) string {
	if n == 0 {
		return "0"
	}
	return warnStyle.Render(fmt.Sprint(n))
}
