package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/clinic-api/api"
	"github.com/linesmerrill/clinic-api/databases"
	"github.com/linesmerrill/clinic-api/finance"
	"github.com/linesmerrill/clinic-api/models"
)

// Medication exported for testing purposes
type Medication struct {
	DB       databases.MedicationDatabase
	PDB      databases.PatientDatabase
	Resolver finance.Resolver
}

// MedicationHistoryHandler returns the clinical notes recorded for a patient
func (m Medication) MedicationHistoryHandler(w http.ResponseWriter, r *http.Request) {
	patientID, err := patientIDVar(r, "patientId")
	if err != nil {
		errorStatus("invalid patient id", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	history, err := m.DB.FindByPatientID(ctx, patientID)
	if err != nil {
		if !models.IsNotFound(err) {
			err = models.NewStoreError("find medication", err)
		}
		errorStatus("failed to get medication history", w, err)
		return
	}
	if !api.CanAccessBranch(identity(r), history.Branch) {
		errorStatus("patient not accessible", w, fmt.Errorf("patient %d: %w", patientID, models.ErrForbidden))
		return
	}
	if history.History == nil {
		history.History = []models.MedicationEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

// AddMedicationHandler appends a clinical note, opening the history on the first one
func (m Medication) AddMedicationHandler(w http.ResponseWriter, r *http.Request) {
	patientID, err := patientIDVar(r, "patientId")
	if err != nil {
		errorStatus("invalid patient id", w, err)
		return
	}
	var req models.MedicationEntryRequest
	if err := decodeBody(r, &req); err != nil {
		errorStatus("invalid medication entry", w, err)
		return
	}

	entry := models.MedicationEntry{
		Date:              time.Now(),
		DoctorObservation: strings.TrimSpace(req.DoctorObservation),
		TreatmentPlan:     strings.TrimSpace(req.TreatmentPlan),
		MedicationAdvised: strings.TrimSpace(req.MedicationAdvised),
	}
	if entry.DoctorObservation == "" && entry.TreatmentPlan == "" && entry.MedicationAdvised == "" {
		errorStatus("invalid medication entry", w, models.NewValidationError("", "entry is empty"))
		return
	}
	if req.Date != "" {
		if entry.Date, err = m.Resolver.ParseInstant(req.Date); err != nil {
			errorStatus("invalid medication entry", w, err)
			return
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	patient, err := m.PDB.FindOne(ctx, bson.M{"patientId": patientID})
	if err != nil {
		if !models.IsNotFound(err) {
			err = models.NewStoreError("find patient", err)
		}
		errorStatus("failed to get patient", w, err)
		return
	}
	if !api.CanAccessBranch(identity(r), patient.Branch) {
		errorStatus("patient not accessible", w, fmt.Errorf("patient %d: %w", patientID, models.ErrForbidden))
		return
	}

	if err := m.DB.AppendEntry(ctx, patient, entry); err != nil {
		errorStatus("failed to add medication entry", w, models.NewStoreError("append medication", err))
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
