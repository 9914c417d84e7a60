package dis

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

type alignment int

const (
	alignLeft alignment = iota
	alignRight
)

type cell struct {
	text  string
	color *color.Color
}

// table renders boxed rows. Widths are computed on the plain text so
// colored cells line up.
type table struct {
	headers []string
	aligns  []alignment
	rows    [][]cell
}

func newTable(headers ...string) *table {
	return &table{headers: headers, aligns: make([]alignment, len(headers))}
}

func (t *table) align(column int, a alignment) {
	t.aligns[column] = a
}

func (t *table) row(cells ...cell) {
	t.rows = append(t.rows, cells)
}

func (t *table) widths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, c := range row {
			if n := utf8.RuneCountInString(c.text); n > widths[i] {
				widths[i] = n
			}
		}
	}
	return widths
}

func (t *table) render(w io.Writer) {
	widths := t.widths()
	sep := func() {
		var b strings.Builder
		b.WriteByte('+')
		for _, width := range widths {
			b.WriteString(strings.Repeat("-", width+2))
			b.WriteByte('+')
		}
		fmt.Fprintln(w, b.String())
	}
	line := func(cells []cell, header bool) {
		var b strings.Builder
		b.WriteByte('|')
		for i, width := range widths {
			var c cell
			if i < len(cells) {
				c = cells[i]
			}
			pad := strings.Repeat(" ", width-utf8.RuneCountInString(c.text))
			text := c.text
			if c.color != nil && text != "" {
				text = c.color.Sprint(text)
			}
			b.WriteByte(' ')
			switch {
			case header:
				// Headers are centered, with the extra space on the right.
				left := (width - utf8.RuneCountInString(c.text)) / 2
				b.WriteString(pad[:left] + text + pad[left:])
			case t.aligns[i] == alignRight:
				b.WriteString(pad + text)
			default:
				b.WriteString(text + pad)
			}
			b.WriteString(" |")
		}
		fmt.Fprintln(w, b.String())
	}

	sep()
	headers := make([]cell, len(t.headers))
	for i, h := range t.headers {
		headers[i] = cell{text: h, color: headerColor}
	}
	line(headers, true)
	sep()
	for _, row := range t.rows {
		line(row, false)
	}
	sep()
}
