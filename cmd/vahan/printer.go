package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"vahanpulse/internal/dataprocessing"
	"vahanpulse/pkg/contracts/domain"
)

// Colors
var (
	accent  = lipgloss.Color("#FF6B00")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	danger  = lipgloss.Color("#FF3B30")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	dangerStyle  = lipgloss.NewStyle().Foreground(danger).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numberStyle  = cellStyle.Align(lipgloss.Right)
)

// printer writes styled command output.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) heading(text string) {
	fmt.Fprintln(p.w, accentStyle.Render("▸ "+text))
}

func (p *printer) field(label, value string) {
	fmt.Fprintf(p.w, "  %s %s\n", mutedStyle.Render(label+":"), titleStyle.Render(value))
}

func (p *printer) warn(text string) {
	fmt.Fprintln(p.w, dangerStyle.Render("  ! "+text))
}

// report prints the normalization counts, dropped rows by reason in name order.
func (p *printer) report(r dataprocessing.Report) {
	p.field("Rows in", strconv.Itoa(r.RowsIn))
	p.field("Rows out", strconv.Itoa(r.RowsOut))
	p.field("Date source", string(r.DateSource))

	dropped := r.Dropped()
	reasons := make([]string, 0, len(dropped))
	for reason := range dropped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		if n := dropped[reason]; n > 0 {
			p.field("Dropped "+reason, strconv.Itoa(n))
		}
	}
	if r.NonNumericCount > 0 {
		p.field("Non-numeric counts", strconv.Itoa(r.NonNumericCount))
	}
	if r.NegativeClamped > 0 {
		p.field("Negative clamped", strconv.Itoa(r.NegativeClamped))
	}
	for _, c := range r.Mapping.Collisions {
		p.warn(fmt.Sprintf("%s mapped from %q, ignored %q", c.Field, c.Kept, c.Dropped))
	}
}

// growth renders a percent change, green when positive and red when negative.
func growth(pct float64) string {
	text := fmt.Sprintf("%+.2f%%", pct)
	switch {
	case pct > 0:
		return successStyle.Render(text)
	case pct < 0:
		return dangerStyle.Render(text)
	default:
		return mutedStyle.Render(text)
	}
}

func (p *printer) summary(s domain.SummaryMetrics) {
	p.heading("Registration summary")
	fmt.Fprintln(p.w, newTable(
		[]string{"Total", "YoY", "QoQ"},
		[][]string{{formatCount(s.Total), growth(s.YearOverYearPct), growth(s.QuarterOverQuarterPct)}},
		0, 1, 2,
	))
}

func (p *printer) categoryShares(shares []domain.CategoryShare) {
	p.heading("Category mix")
	if len(shares) == 0 {
		fmt.Fprintln(p.w, mutedStyle.Render("  no registrations"))
		return
	}
	rows := make([][]string, 0, len(shares))
	for _, s := range shares {
		rows = append(rows, []string{
			string(s.VehicleCategory),
			formatCount(s.Total),
			fmt.Sprintf("%.1f%%", s.SharePct),
		})
	}
	fmt.Fprintln(p.w, newTable([]string{"Category", "Registrations", "Share"}, rows, 1, 2))
}

func (p *printer) ranking(ranked []domain.ManufacturerTotal) {
	p.heading("Top manufacturers")
	if len(ranked) == 0 {
		fmt.Fprintln(p.w, mutedStyle.Render("  no registrations in range"))
		return
	}
	rows := make([][]string, 0, len(ranked))
	for i, m := range ranked {
		rows = append(rows, []string{strconv.Itoa(i + 1), m.Manufacturer, formatCount(m.Total)})
	}
	fmt.Fprintln(p.w, newTable([]string{"#", "Manufacturer", "Registrations"}, rows, 0, 2))
}

// newTable renders rows under headers with the numeric columns right-aligned.
func newTable(headers []string, rows [][]string, numeric ...int) string {
	right := make(map[int]bool, len(numeric))
	for _, col := range numeric {
		right[col] = true
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}

// formatCount groups digits in threes: 1234567 -> 1,234,567.
func formatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if n < 0 {
		neg = true
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}
