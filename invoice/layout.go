package invoice

import (
	"strings"
	"unicode"
)

const (
	marginLeft   = 50.0
	marginTop    = 50.0
	marginBottom = 60.0
	tableWidth   = 540.0

	lineHeight   = 14.0
	cellPadding  = 5.0
	headerHeight = 24.0
	minRowHeight = 24.0
	sectionGap   = 18.0

	totalsX      = 320.0
	totalsWidth  = 270.0
	totalsRow    = 24.0
	totalsLabelX = 330.0
	totalsValueX = 450.0
	totalsValueW = 130.0
)

type column struct {
	title string
	x, w  float64
	align string
}

var treatmentColumns = []column{
	{title: "No.", x: 60, w: 30, align: "L"},
	{title: "Type", x: 100, w: 170, align: "L"},
	{title: "Description", x: 280, w: 160, align: "L"},
	{title: "Estimate", x: 445, w: 135, align: "R"},
}

var paymentColumns = []column{
	{title: "No.", x: 60, w: 30, align: "L"},
	{title: "Amount", x: 100, w: 110, align: "L"},
	{title: "Date", x: 220, w: 110, align: "L"},
	{title: "Mode", x: 340, w: 80, align: "L"},
	{title: "Txn ID", x: 430, w: 150, align: "L"},
}

// pager tracks the vertical cursor over a sequence of pages. Anything that needs h points
// asks ensure(h) first: when h no longer fits above the bottom margin the pager starts a
// new page and, while a table is open, redraws that table's column header before the
// caller draws.
type pager struct {
	c      Canvas
	y      float64
	bottom float64
	pages  int
	header func()
}

func newPager(c Canvas) *pager {
	p := &pager{c: c, bottom: pageHeight - marginBottom}
	p.newPage()
	return p
}

func (p *pager) newPage() {
	p.c.AddPage()
	p.pages++
	p.y = marginTop
}

func (p *pager) remaining() float64 {
	return p.bottom - p.y
}

// ensure makes room for h points and reports whether a page break happened
func (p *pager) ensure(h float64) bool {
	if h <= p.remaining() {
		return false
	}
	p.breakPage()
	return true
}

// breakPage starts a new page, redrawing the open table's header
func (p *pager) breakPage() {
	p.newPage()
	if p.header != nil {
		p.header()
	}
}

// capacity is the tallest row that fits on a fresh page below a table header
func (p *pager) capacity() float64 {
	return p.bottom - marginTop - headerHeight
}

func (p *pager) line(style string, size float64, s string) {
	p.ensure(lineHeight + 2)
	p.c.SetFont(style, size)
	p.c.Text(marginLeft, p.y, tableWidth, lineHeight+2, s, "L")
	p.y += lineHeight + 2
}

func (p *pager) paragraph(s string) {
	p.c.SetFont("", 12)
	for _, l := range wrap(p.c, s, tableWidth) {
		p.ensure(lineHeight)
		p.c.Text(marginLeft, p.y, tableWidth, lineHeight, l, "L")
		p.y += lineHeight
	}
}

// section draws a heading, keeping it on the same page as the block that follows
func (p *pager) section(title string, keepWith float64) {
	p.y += sectionGap / 2
	p.ensure(lineHeight + 6 + keepWith)
	p.c.SetFont("BU", 14)
	p.c.Text(marginLeft, p.y, tableWidth, lineHeight+4, title, "L")
	p.y += lineHeight + 6
}

func (p *pager) table(cols []column, rows [][]string) {
	drawHeader := func() {
		p.c.Rect(marginLeft, p.y, tableWidth, headerHeight)
		p.c.SetFont("B", 12)
		for _, col := range cols {
			p.c.Text(col.x, p.y, col.w, headerHeight, col.title, col.align)
		}
		p.y += headerHeight
	}

	p.ensure(headerHeight + minRowHeight)
	drawHeader()
	p.header = drawHeader
	defer func() { p.header = nil }()

	p.c.SetFont("", 12)
	for _, row := range rows {
		cells := make([][]string, len(cols))
		for i, col := range cols {
			var text string
			if i < len(row) {
				text = row[i]
			}
			cells[i] = wrap(p.c, text, col.w-4)
		}
		p.row(cols, cells)
	}
	p.y += sectionGap
}

// row draws one table row. A row that fits on a fresh page is moved there whole; a
// taller one fills the current page and carries its remaining lines over to the next.
func (p *pager) row(cols []column, cells [][]string) {
	for start := 0; ; {
		lines := 1
		for _, c := range cells {
			if n := len(c) - start; n > lines {
				lines = n
			}
		}
		h := rowHeight(lines)
		if h <= p.remaining() {
			p.segment(cols, cells, start, lines)
			return
		}
		if h <= p.capacity() || p.remaining() < minRowHeight {
			p.breakPage()
			p.c.SetFont("", 12)
			continue
		}
		n := int((p.remaining() - 2*cellPadding) / lineHeight)
		p.segment(cols, cells, start, n)
		start += n
		p.breakPage()
		p.c.SetFont("", 12)
	}
}

// segment draws lines [start, start+n) of every cell inside one bordered box
func (p *pager) segment(cols []column, cells [][]string, start, n int) {
	h := rowHeight(n)
	p.c.Rect(marginLeft, p.y, tableWidth, h)
	for i, col := range cols {
		for k := start; k < start+n && k < len(cells[i]); k++ {
			p.c.Text(col.x, p.y+cellPadding+float64(k-start)*lineHeight, col.w, lineHeight, cells[i][k], col.align)
		}
	}
	p.y += h
}

func rowHeight(lines int) float64 {
	h := float64(lines)*lineHeight + 2*cellPadding
	if h < minRowHeight {
		return minRowHeight
	}
	return h
}

// totals draws the label/value block right-aligned under the tables. It is never split.
func (p *pager) totals(labels, values []string) {
	h := float64(len(labels)) * totalsRow
	p.ensure(h)
	p.c.SetFont("", 12)
	for i := range labels {
		y := p.y + float64(i)*totalsRow
		p.c.Rect(totalsX, y, totalsWidth, totalsRow)
		p.c.Text(totalsLabelX, y, 120, totalsRow, labels[i], "L")
		p.c.Text(totalsValueX, y, totalsValueW, totalsRow, values[i], "R")
	}
	p.y += h
}

// wrap breaks s into lines no wider than w. Explicit newlines are kept and words longer
// than w are split between runes.
func wrap(c Canvas, s string, w float64) []string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || !unicode.IsControl(r) {
			return r
		}
		return ' '
	}, s)

	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		cur := ""
		for _, word := range words {
			for c.StringWidth(word) > w {
				head, tail := splitWord(c, word, w)
				if cur != "" {
					out = append(out, cur)
					cur = ""
				}
				out = append(out, head)
				word = tail
			}
			if word == "" {
				continue
			}
			candidate := word
			if cur != "" {
				candidate = cur + " " + word
			}
			if c.StringWidth(candidate) <= w {
				cur = candidate
				continue
			}
			out = append(out, cur)
			cur = word
		}
		if cur != "" {
			out = append(out, cur)
		}
	}
	if len(out) == 0 {
		return []string{""}
	}
	return out
}

// splitWord returns the longest prefix of word fitting in w (at least one rune) and the rest
func splitWord(c Canvas, word string, w float64) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && c.StringWidth(string(runes[:n+1])) <= w {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}
