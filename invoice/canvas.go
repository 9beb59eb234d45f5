package invoice

import (
	"io"

	"github.com/go-pdf/fpdf"
)

// Letter page in points
const (
	pageWidth  = 612.0
	pageHeight = 792.0
)

// Canvas is the drawing surface the layout writes to. Coordinates are points from the
// top-left corner of the current page.
type Canvas interface {
	AddPage()
	SetFont(style string, size float64)
	Rect(x, y, w, h float64)
	Text(x, y, w, h float64, s, align string)
	StringWidth(s string) float64
	Output(w io.Writer) error
	Err() error
}

// pdfCanvas draws on an fpdf document. Without a UTF-8 font it uses the core Helvetica
// font and translates text to cp1252.
type pdfCanvas struct {
	pdf       *fpdf.Fpdf
	family    string
	translate func(string) string
}

const utf8Family = "invoice"

func newPDFCanvas(fontPath, title string) (*pdfCanvas, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(50, 50, 22)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(true)
	pdf.SetCreator("clinic-api", true)
	pdf.SetTitle(title, true)

	c := &pdfCanvas{
		pdf:       pdf,
		family:    "Helvetica",
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
	if fontPath != "" {
		pdf.AddUTF8Font(utf8Family, "", fontPath)
		pdf.AddUTF8Font(utf8Family, "B", fontPath)
		c.family = utf8Family
		c.translate = func(s string) string { return s }
	}
	if err := pdf.Error(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *pdfCanvas) AddPage() {
	c.pdf.AddPage()
}

func (c *pdfCanvas) SetFont(style string, size float64) {
	c.pdf.SetFont(c.family, style, size)
}

func (c *pdfCanvas) Rect(x, y, w, h float64) {
	c.pdf.SetLineWidth(1)
	c.pdf.Rect(x, y, w, h, "D")
}

func (c *pdfCanvas) Text(x, y, w, h float64, s, align string) {
	c.pdf.SetXY(x, y)
	c.pdf.CellFormat(w, h, c.translate(s), "", 0, align+"M", false, 0, "")
}

func (c *pdfCanvas) StringWidth(s string) float64 {
	return c.pdf.GetStringWidth(c.translate(s))
}

func (c *pdfCanvas) Output(w io.Writer) error {
	return c.pdf.Output(w)
}

func (c *pdfCanvas) Err() error {
	return c.pdf.Error()
}
