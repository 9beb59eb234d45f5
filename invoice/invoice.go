package invoice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/clinic-api/databases"
	"github.com/linesmerrill/clinic-api/models"
)

// Selector picks the payment an invoice is printed for. Exactly one field is set.
type Selector struct {
	InvoiceNo     string
	TransactionID string
}

// ByTransaction reports whether the selector is the transaction-scoped variant
func (s Selector) ByTransaction() bool {
	return s.InvoiceNo == "" && s.TransactionID != ""
}

// Renderer lays out invoices for stored patients
type Renderer struct {
	Patients databases.PatientDatabase
	Location *time.Location
	FontPath string
	Now      func() time.Time

	// NewCanvas creates the drawing surface for one invoice
	NewCanvas func(title string) (Canvas, error)
}

// NewRenderer creates a Renderer drawing PDFs, with the UTF-8 font at fontPath when set
func NewRenderer(p databases.PatientDatabase, loc *time.Location, fontPath string) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	r := &Renderer{
		Patients: p,
		Location: loc,
		FontPath: fontPath,
		Now:      time.Now,
	}
	r.NewCanvas = func(title string) (Canvas, error) {
		return newPDFCanvas(r.FontPath, title)
	}
	return r
}

func (r *Renderer) currency() string {
	if r.FontPath != "" {
		return rupee
	}
	return rupeeFallback
}

// Invoice is a fully laid out document waiting to be written
type Invoice struct {
	Patient       models.Patient
	Payment       models.Payment
	ByTransaction bool

	TotalEstimate float64
	TotalPaid     float64
	Balance       float64

	Pages int

	canvas Canvas
}

// Prepare looks up the patient and the selected payment and lays the invoice out. Every
// failure happens here, before the caller has written anything.
func (r *Renderer) Prepare(ctx context.Context, patientID int64, sel Selector) (*Invoice, error) {
	if sel.InvoiceNo == "" && sel.TransactionID == "" {
		return nil, models.NewValidationError("invoiceNo", "invoice number or transaction id required")
	}

	patient, err := r.Patients.FindOne(ctx, bson.M{"patientId": patientID})
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NotFoundf("patient %d", patientID)
		}
		return nil, models.NewStoreError("find patient", err)
	}

	var (
		payment models.Payment
		ok      bool
	)
	if sel.ByTransaction() {
		payment, ok = patient.PaymentByTransactionID(sel.TransactionID)
	} else {
		payment, ok = patient.PaymentByInvoiceNo(sel.InvoiceNo)
	}
	if !ok {
		if sel.ByTransaction() {
			return nil, models.NotFoundf("transaction %s", sel.TransactionID)
		}
		return nil, models.NotFoundf("invoice %s", sel.InvoiceNo)
	}

	inv := &Invoice{
		Patient:       *patient,
		Payment:       payment,
		ByTransaction: sel.ByTransaction(),
		TotalEstimate: patient.TotalEstimate(),
		TotalPaid:     patient.TotalPaid(),
	}
	inv.Balance = inv.TotalEstimate - inv.TotalPaid

	c, err := r.NewCanvas(inv.Title())
	if err != nil {
		return nil, fmt.Errorf("invoice canvas: %w", err)
	}
	inv.Pages = r.layout(c, inv)
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("invoice layout: %w", err)
	}
	inv.canvas = c
	return inv, nil
}

// Title is the document title
func (inv *Invoice) Title() string {
	if inv.ByTransaction {
		return "Transaction Bill " + inv.Payment.TransactionID
	}
	return "Invoice " + inv.Payment.InvoiceNo
}

// Filename is the attachment name the invoice is served under
func (inv *Invoice) Filename() string {
	if inv.ByTransaction {
		return fmt.Sprintf("txn_bill_%d_%s.pdf", inv.Patient.PatientID, safeName(inv.Payment.TransactionID))
	}
	return fmt.Sprintf("invoice_%s.pdf", safeName(inv.Payment.InvoiceNo))
}

// WriteTo writes the rendered document to w. An invoice can only be written once.
func (inv *Invoice) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := inv.canvas.Output(cw)
	return cw.n, err
}

// Bytes renders the whole document into memory
func (inv *Invoice) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := inv.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) layout(c Canvas, inv *Invoice) int {
	cur := r.currency()
	loc := r.Location
	p := newPager(c)

	c.SetFont("B", 20)
	c.Text(marginLeft, p.y, tableWidth, 24, "Patient Invoice", "C")
	p.y += 34

	if inv.ByTransaction {
		p.line("B", 14, "Transaction ID: "+inv.Payment.TransactionID)
	} else {
		p.line("B", 14, "Invoice No: "+inv.Payment.InvoiceNo)
	}
	date := inv.Payment.Date
	if date == nil {
		now := r.now()
		date = &now
	}
	p.line("", 12, "Patient ID: "+itoa(inv.Patient.PatientID))
	p.line("", 12, "Name: "+inv.Patient.Name)
	p.line("", 12, "Phone: "+itoa(inv.Patient.Phone))
	p.line("", 12, "Address: "+inv.Patient.Address)
	p.line("", 12, "Date: "+formatDate(date, loc))

	complaints := strings.TrimSpace(inv.Patient.ChiefComplaints)
	if complaints == "" {
		complaints = "None"
	}
	p.section("Chief Complaint Details:", lineHeight)
	p.paragraph(complaints)

	treatments := make([][]string, 0, len(inv.Patient.Treatments))
	for i, t := range inv.Patient.Treatments {
		treatments = append(treatments, []string{
			itoa(int64(i + 1)),
			t.Type,
			t.Description,
			money(cur, t.Estimate.Float64()),
		})
	}
	p.section("Treatment Details:", headerHeight+minRowHeight)
	p.table(withCurrency(treatmentColumns, 3, cur), treatments)

	payments := inv.Patient.Payments
	if inv.ByTransaction {
		payments = []models.Payment{inv.Payment}
	}
	rows := make([][]string, 0, len(payments))
	for i, pay := range payments {
		rows = append(rows, []string{
			itoa(int64(i + 1)),
			money(cur, pay.Amount.Float64()),
			formatDate(pay.Date, loc),
			pay.Mode,
			pay.TransactionID,
		})
	}
	p.section("Payment Details:", headerHeight+minRowHeight)
	p.table(withCurrency(paymentColumns, 1, cur), rows)

	p.totals(
		[]string{"Total Estimate", "Total Paid", "Balance"},
		[]string{money(cur, inv.TotalEstimate), money(cur, inv.TotalPaid), money(cur, inv.Balance)},
	)
	return p.pages
}

func (r *Renderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func withCurrency(cols []column, idx int, symbol string) []column {
	out := make([]column, len(cols))
	copy(out, cols)
	out[idx].title = fmt.Sprintf("%s (%s)", out[idx].title, strings.TrimSpace(symbol))
	return out
}

// safeName keeps identifiers usable inside a Content-Disposition filename
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
