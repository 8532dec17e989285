package utils

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Alignment of a table column
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

var headerStyle = lipgloss.NewStyle().Bold(true)

// TableFormatter renders rows as a box-drawn table for CLI output
type TableFormatter struct {
	headers []string
	rows    [][]string
	widths  []int
	align   []Alignment
}

// NewTableFormatter creates a new table formatter with headers
func NewTableFormatter(headers ...string) *TableFormatter {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	return &TableFormatter{
		headers: headers,
		widths:  widths,
		align:   make([]Alignment, len(headers)),
	}
}

// Align sets the alignment of column col
func (t *TableFormatter) Align(col int, a Alignment) *TableFormatter {
	if col >= 0 && col < len(t.align) {
		t.align[col] = a
	}
	return t
}

// AddRow adds a row to the table. The row must have one cell per header.
func (t *TableFormatter) AddRow(cells ...string) error {
	if len(cells) != len(t.headers) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.headers))
	}
	t.rows = append(t.rows, cells)
	for i, cell := range cells {
		if w := lipgloss.Width(cell); w > t.widths[i] {
			t.widths[i] = w
		}
	}
	return nil
}

// Len returns the number of rows
func (t *TableFormatter) Len() int {
	return len(t.rows)
}

// String returns the formatted table
func (t *TableFormatter) String() string {
	var sb strings.Builder

	t.writeBorder(&sb, "┌", "┬", "┐")
	t.writeRow(&sb, t.headers, true)
	t.writeBorder(&sb, "├", "┼", "┤")
	for _, row := range t.rows {
		t.writeRow(&sb, row, false)
	}
	t.writeBorder(&sb, "└", "┴", "┘")

	return sb.String()
}

func (t *TableFormatter) writeRow(sb *strings.Builder, cells []string, header bool) {
	sb.WriteString("│")
	for i, cell := range cells {
		pad := strings.Repeat(" ", t.widths[i]-lipgloss.Width(cell))
		if header {
			cell = headerStyle.Render(cell)
		}
		if t.align[i] == AlignRight && !header {
			sb.WriteString(" " + pad + cell + " ")
		} else {
			sb.WriteString(" " + cell + pad + " ")
		}
		sb.WriteString("│")
	}
	sb.WriteString("\n")
}

func (t *TableFormatter) writeBorder(sb *strings.Builder, left, middle, right string) {
	sb.WriteString(left)
	for i, w := range t.widths {
		sb.WriteString(strings.Repeat("─", w+2))
		if i < len(t.widths)-1 {
			sb.WriteString(middle)
		}
	}
	sb.WriteString(right)
	sb.WriteString("\n")
}
