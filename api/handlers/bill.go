package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-api/api"
	"github.com/linesmerrill/clinic-api/config"
	"github.com/linesmerrill/clinic-api/invoice"
	"github.com/linesmerrill/clinic-api/models"
)

// Bill prints and archives patient invoices
type Bill struct {
	Renderer *invoice.Renderer
	Archiver *invoice.Archiver
	Metrics  *api.Metrics
}

// PrintInvoiceHandler streams the invoice for a payment's invoice number
func (b Bill) PrintInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	b.print(w, r, invoice.Selector{InvoiceNo: mux.Vars(r)["invoiceNo"]})
}

// PrintTransactionHandler streams the bill for a single payment transaction
func (b Bill) PrintTransactionHandler(w http.ResponseWriter, r *http.Request) {
	b.print(w, r, invoice.Selector{TransactionID: mux.Vars(r)["transactionId"]})
}

func (b Bill) print(w http.ResponseWriter, r *http.Request, sel invoice.Selector) {
	variant := "invoice"
	if sel.ByTransaction() {
		variant = "transaction"
	}

	patientID, err := patientIDVar(r, "patientId")
	if err != nil {
		errorStatus("invalid patient id", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	inv, err := b.Renderer.Prepare(ctx, patientID, sel)
	cancel()
	if err != nil {
		b.observe(variant, err)
		errorStatus("failed to prepare invoice", w, err)
		return
	}
	if !api.CanAccessBranch(identity(r), inv.Patient.Branch) {
		err := fmt.Errorf("patient %d: %w", patientID, models.ErrForbidden)
		b.observe(variant, err)
		errorStatus("patient not accessible", w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inv.Filename()))
	w.WriteHeader(http.StatusOK)

	// the status line is out, failures from here on can only be logged
	n, err := inv.WriteTo(w)
	b.observe(variant, err)
	if err != nil {
		zap.S().Errorw("failed to stream invoice",
			"patientId", patientID,
			"invoiceNo", sel.InvoiceNo,
			"transactionId", sel.TransactionID,
			"written", n,
			"error", err)
		return
	}
	zap.S().Infow("invoice printed",
		"patientId", patientID,
		"variant", variant,
		"pages", inv.Pages,
		"bytes", n)
}

// ArchiveHandler uploads the invoice and records it on the patient as a bill
func (b Bill) ArchiveHandler(w http.ResponseWriter, r *http.Request) {
	if !b.Archiver.Enabled() {
		archiveDisabled(w)
		return
	}
	patientID, err := patientIDVar(r, "patientId")
	if err != nil {
		errorStatus("invalid patient id", w, err)
		return
	}
	invoiceNo := mux.Vars(r)["invoiceNo"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	owner, err := b.Renderer.Patients.FindOne(ctx, bson.M{"patientId": patientID},
		options.FindOne().SetProjection(bson.M{"branch": 1}))
	if err != nil {
		errorStatus("failed to get patient", w, err)
		return
	}
	if !api.CanAccessBranch(identity(r), owner.Branch) {
		errorStatus("patient not accessible", w, fmt.Errorf("patient %d: %w", patientID, models.ErrForbidden))
		return
	}

	bill, err := b.Archiver.Archive(ctx, patientID, invoiceNo)
	if err != nil {
		if errors.Is(err, invoice.ErrArchiveDisabled) {
			archiveDisabled(w)
			return
		}
		errorStatus("failed to archive invoice", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bill)
}

func (b Bill) observe(variant string, err error) {
	if b.Metrics != nil {
		b.Metrics.InvoiceRendered(variant, err)
	}
}

func archiveDisabled(w http.ResponseWriter) {
	config.ErrorStatus("invoice archive is disabled", http.StatusNotImplemented, w, invoice.ErrArchiveDisabled)
}
