package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FirstPatientID is handed out when the patients collection is empty
const FirstPatientID int64 = 100001

// Payment modes accepted by the clinic
const (
	PaymentModeCash   = "Cash"
	PaymentModeOnline = "Online"
)

// Patient holds the structure for the patient collection in mongo. The patient document
// is the aggregation root for its treatments, payments and archived bills.
type Patient struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	PatientID       int64              `json:"patientId" bson:"patientId"`
	Name            string             `json:"name" bson:"name"`
	Age             int                `json:"age" bson:"age"`
	Gender          string             `json:"gender" bson:"gender"`
	Address         string             `json:"address" bson:"address"`
	Phone           int64              `json:"phone" bson:"phone"`
	HasComplication bool               `json:"hasComplication" bson:"hasComplication"`
	Description     string             `json:"description" bson:"description"`
	ChiefComplaints string             `json:"chiefComplaints" bson:"chiefComplaints"`
	Treatments      []Treatment        `json:"treatments" bson:"treatments"`
	Payments        []Payment          `json:"payments" bson:"payments"`
	Bills           []Bill             `json:"bills,omitempty" bson:"bills,omitempty"`
	Branch          string             `json:"branch" bson:"branch"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Treatment is a single planned or performed treatment on a patient
type Treatment struct {
	Type        string     `json:"type" bson:"type"`
	Description string     `json:"description" bson:"description"`
	Estimate    Amount     `json:"estimate" bson:"estimate"`
	Date        *time.Time `json:"date,omitempty" bson:"date,omitempty"`
}

// Payment is a single payment received from a patient
type Payment struct {
	Amount        Amount     `json:"amount" bson:"amount"`
	Date          *time.Time `json:"date,omitempty" bson:"date,omitempty"`
	Mode          string     `json:"mode" bson:"mode"`
	TransactionID string     `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	InvoiceNo     string     `json:"invoiceNo" bson:"invoiceNo"`
}

// Bill is an archived invoice document for one payment
type Bill struct {
	BillID        string      `json:"billId" bson:"billId"`
	Date          time.Time   `json:"date" bson:"date"`
	Treatments    []Treatment `json:"treatments" bson:"treatments"`
	TotalEstimate Amount      `json:"totalEstimate" bson:"totalEstimate"`
	TotalPaid     Amount      `json:"totalPaid" bson:"totalPaid"`
	PdfURL        string      `json:"pdfUrl" bson:"pdfUrl"`
}

// TotalEstimate sums every treatment estimate on the patient
func (p Patient) TotalEstimate() float64 {
	var total float64
	for _, t := range p.Treatments {
		total += t.Estimate.Float64()
	}
	return total
}

// TotalPaid sums every payment on the patient regardless of date
func (p Patient) TotalPaid() float64 {
	var total float64
	for _, pay := range p.Payments {
		total += pay.Amount.Float64()
	}
	return total
}

// PaymentByInvoiceNo returns the payment carrying the given invoice number
func (p Patient) PaymentByInvoiceNo(invoiceNo string) (Payment, bool) {
	for _, pay := range p.Payments {
		if invoiceNo != "" && pay.InvoiceNo == invoiceNo {
			return pay, true
		}
	}
	return Payment{}, false
}

// PaymentByTransactionID returns the payment carrying the given transaction id
func (p Patient) PaymentByTransactionID(txnID string) (Payment, bool) {
	for _, pay := range p.Payments {
		if txnID != "" && pay.TransactionID == txnID {
			return pay, true
		}
	}
	return Payment{}, false
}

// PatientRegistration is the request body used to register a new patient
type PatientRegistration struct {
	Name            string `json:"name" validate:"required"`
	Age             int    `json:"age" validate:"gte=0"`
	Gender          string `json:"gender" validate:"required"`
	Address         string `json:"address" validate:"required"`
	Phone           int64  `json:"phone" validate:"required"`
	HasComplication bool   `json:"hasComplication"`
	Description     string `json:"description"`
	Branch          string `json:"branch"`
}

// TreatmentUpdate is the request body used to set chief complaints and treatments
type TreatmentUpdate struct {
	ChiefComplaints *string     `json:"chiefComplaints"`
	Treatments      []Treatment `json:"treatments"`
}

// TreatmentType is the projection returned by the treatment-types route
type TreatmentType struct {
	Type string `json:"type"`
}

// PaymentRequest is the request body used to record a payment against a patient
type PaymentRequest struct {
	Amount        Amount `json:"amount" validate:"gt=0"`
	Date          string `json:"date"`
	Mode          string `json:"mode" validate:"oneof=Cash Online"`
	TransactionID string `json:"transactionId"`
}

// Keep reports whether a submitted treatment carries enough to be stored: a type plus a
// description or an estimate
func (t Treatment) Keep() bool {
	if t.Type == "" {
		return false
	}
	return t.Description != "" || t.Estimate != 0
}

// CleanTreatments drops the entries Keep rejects and trims their text fields
func CleanTreatments(in []Treatment) []Treatment {
	out := make([]Treatment, 0, len(in))
	for _, t := range in {
		t.Type = strings.TrimSpace(t.Type)
		t.Description = strings.TrimSpace(t.Description)
		if !t.Keep() {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ValidateEstimates rejects negative estimates
func ValidateEstimates(ts []Treatment) error {
	for i, t := range ts {
		if t.Estimate < 0 {
			return NewValidationError("treatments", "entry %d has a negative estimate", i+1)
		}
	}
	return nil
}

// TreatmentTypes lists the non-empty treatment types in the order they were added
func (p Patient) TreatmentTypes() []TreatmentType {
	out := make([]TreatmentType, 0, len(p.Treatments))
	for _, t := range p.Treatments {
		if t.Type != "" {
			out = append(out, TreatmentType{Type: t.Type})
		}
	}
	return out
}

// TreatmentList is the request body carrying only treatments
type TreatmentList struct {
	Treatments []Treatment `json:"treatments"`
}

// EstimateUpdate is the request body used to change one treatment estimate
type EstimateUpdate struct {
	Estimate Amount `json:"estimate" validate:"gte=0"`
}

// AmountUpdate is the request body used to change one payment amount
type AmountUpdate struct {
	Amount Amount `json:"amount" validate:"gt=0"`
}
