package handlers

import (
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/clinic-api/api"
	"github.com/linesmerrill/clinic-api/databases"
	"github.com/linesmerrill/clinic-api/models"
)

// Appointment exported for testing purposes
type Appointment struct {
	DB databases.AppointmentDatabase
}

// CreateAppointmentHandler books an appointment; every field is required
func (a Appointment) CreateAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var appt models.Appointment
	if err := decodeBody(r, &appt); err != nil {
		errorStatus("invalid appointment", w, err)
		return
	}
	appt.CreatedAt = time.Now()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.DB.InsertOne(ctx, &appt); err != nil {
		errorStatus("failed to book appointment", w, models.NewStoreError("insert appointment", err))
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// AppointmentsHandler lists appointments, only those of one day when date is given
func (a Appointment) AppointmentsHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if date := strings.TrimSpace(r.URL.Query().Get("date")); date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			errorStatus("invalid date", w, models.NewValidationError("date", "expected YYYY-MM-DD, got %q", date))
			return
		}
		filter["appointmentDate"] = date
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "appointmentDate", Value: 1}, {Key: "appointmentTime", Value: 1}})
	appts, err := a.DB.Find(ctx, filter, opts)
	if err != nil {
		errorStatus("failed to get appointments", w, models.NewStoreError("find appointments", err))
		return
	}
	if appts == nil {
		appts = []models.Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}
