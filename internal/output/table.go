package output

import (
	"io"
	"strings"
	"unicode/utf8"
)

// Align is a column alignment.
type Align int

// Column alignments.
const (
	AlignLeft Align = iota
	AlignRight
)

// Table renders rows as aligned columns separated by two spaces.
type Table struct {
	headers []string
	align   []Align
	rows    [][]string
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AlignRight right-aligns the given columns, typically amounts.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		for len(t.align) <= c {
			t.align = append(t.align, AlignLeft)
		}
		t.align[c] = AlignRight
	}
	return t
}

// AddRow adds a row. Missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// RenderText writes the header, a dashed rule, and the rows.
func (t *Table) RenderText(w io.Writer) error {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return nil
	}
	widths := t.widths()

	var sb strings.Builder
	if len(t.headers) > 0 {
		t.line(&sb, t.headers, widths)
		rule := make([]string, len(widths))
		for i, n := range widths {
			rule[i] = strings.Repeat("-", n)
		}
		t.line(&sb, rule, widths)
	}
	for _, row := range t.rows {
		t.line(&sb, row, widths)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// String returns the rendered table.
func (t *Table) String() string {
	var sb strings.Builder
	_ = t.RenderText(&sb)
	return sb.String()
}

func (t *Table) widths() []int {
	cols := len(t.headers)
	for _, row := range t.rows {
		cols = max(cols, len(row))
	}
	widths := make([]int, cols)
	for _, row := range append([][]string{t.headers}, t.rows...) {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	return widths
}

func (t *Table) line(sb *strings.Builder, cells []string, widths []int) {
	parts := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", width-utf8.RuneCountInString(cell))
		if i < len(t.align) && t.align[i] == AlignRight {
			parts[i] = pad + cell
		} else {
			parts[i] = cell + pad
		}
	}
	sb.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
	sb.WriteByte('\n')
}

// KV renders labelled values as an aligned "label: value" list.
type KV struct {
	keys   []string
	values []string
}

// Add appends a pair. Empty values are skipped.
func (kv *KV) Add(key, value string) *KV {
	if value == "" {
		return kv
	}
	kv.keys = append(kv.keys, key)
	kv.values = append(kv.values, value)
	return kv
}

// RenderText writes one pair per line with values aligned.
func (kv *KV) RenderText(w io.Writer) error {
	width := 0
	for _, k := range kv.keys {
		width = max(width, utf8.RuneCountInString(k))
	}
	var sb strings.Builder
	for i, k := range kv.keys {
		sb.WriteString(k)
		sb.WriteByte(':')
		sb.WriteString(strings.Repeat(" ", width-utf8.RuneCountInString(k)+1))
		sb.WriteString(kv.values[i])
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
