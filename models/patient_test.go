package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTreatments(t *testing.T) {
	in := []Treatment{
		{Type: "FILLING", Description: "upper left", Estimate: 1500},
		{Type: "", Description: "no type", Estimate: 100},
		{Type: "SCALING"},
		{Type: " BRACES ", Estimate: 30000},
		{Type: "CROWNS BRIDGES", Description: "  "},
	}

	got := CleanTreatments(in)

	assert.Equal(t, []Treatment{
		{Type: "FILLING", Description: "upper left", Estimate: 1500},
		{Type: "BRACES", Estimate: 30000},
	}, got)
}

func TestValidateEstimates(t *testing.T) {
	assert.NoError(t, ValidateEstimates([]Treatment{{Type: "X", Estimate: 0}}))
	assert.Error(t, ValidateEstimates([]Treatment{{Type: "X", Estimate: 10}, {Type: "Y", Estimate: -1}}))
}

func TestPatientTotals(t *testing.T) {
	p := Patient{
		Treatments: []Treatment{{Type: "IMPLANTS", Estimate: 25000}, {Type: "", Estimate: 500}},
		Payments: []Payment{
			{Amount: 10000, InvoiceNo: "ADC202403151", Mode: PaymentModeCash},
			{Amount: 2500.5, InvoiceNo: "ADC202403152", TransactionID: "UPI-9", Mode: PaymentModeOnline},
		},
	}

	assert.Equal(t, 25500.0, p.TotalEstimate())
	assert.Equal(t, 12500.5, p.TotalPaid())
	assert.Equal(t, []TreatmentType{{Type: "IMPLANTS"}}, p.TreatmentTypes())

	pay, ok := p.PaymentByTransactionID("UPI-9")
	assert.True(t, ok)
	assert.Equal(t, "ADC202403152", pay.InvoiceNo)

	_, ok = p.PaymentByInvoiceNo("")
	assert.False(t, ok)
}
