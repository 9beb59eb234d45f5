package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-api/api"
	"github.com/linesmerrill/clinic-api/databases"
	"github.com/linesmerrill/clinic-api/finance"
	"github.com/linesmerrill/clinic-api/invoice"
	"github.com/linesmerrill/clinic-api/models"
)

// registerAttempts bounds retries when two registrations race for the same patientId
const registerAttempts = 3

// Patient exported for testing purposes
type Patient struct {
	DB       databases.PatientDatabase
	Numbers  *invoice.NumberGenerator
	Resolver finance.Resolver
	Growth   *finance.Aggregator
}

// RegisterPatientHandler creates a patient with the next sequential patientId
func (p Patient) RegisterPatientHandler(w http.ResponseWriter, r *http.Request) {
	var req models.PatientRegistration
	if err := decodeBody(r, &req); err != nil {
		errorStatus("invalid patient", w, err)
		return
	}
	branch, err := api.ResolveBranch(identity(r), req.Branch)
	if err != nil {
		errorStatus("branch not allowed", w, err)
		return
	}
	if !finance.FiltersBranch(branch) {
		errorStatus("invalid patient", w, models.NewValidationError("branch", "branch required"))
		return
	}

	now := time.Now()
	patient := &models.Patient{
		Name:            strings.TrimSpace(req.Name),
		Age:             req.Age,
		Gender:          req.Gender,
		Address:         strings.TrimSpace(req.Address),
		Phone:           req.Phone,
		HasComplication: req.HasComplication,
		Treatments:      []models.Treatment{},
		Payments:        []models.Payment{},
		Branch:          branch,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.HasComplication {
		patient.Description = strings.TrimSpace(req.Description)
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	for attempt := 1; ; attempt++ {
		patient.PatientID, err = p.DB.NextPatientID(ctx)
		if err != nil {
			errorStatus("failed to allocate patient id", w, models.NewStoreError("next patient id", err))
			return
		}
		err = p.DB.InsertOne(ctx, patient)
		if err == nil {
			break
		}
		if mongo.IsDuplicateKeyError(err) && attempt < registerAttempts {
			zap.S().Warnw("patient id taken, retrying", "patientId", patient.PatientID, "attempt", attempt)
			continue
		}
		errorStatus("failed to register patient", w, models.NewStoreError("insert patient", err))
		return
	}

	zap.S().Infow("patient registered",
		"patientId", patient.PatientID,
		"branch", patient.Branch)
	writeJSON(w, http.StatusCreated, patient)
}

// SearchPatientsHandler finds patients by name, patientId or phone, optionally narrowed to
// a registration window
func (p Patient) SearchPatientsHandler(w http.ResponseWriter, r *http.Request) {
	branch, err := requestedBranch(r)
	if err != nil {
		errorStatus("branch not allowed", w, err)
		return
	}
	win, err := p.Resolver.Resolve(finance.WindowParamsFromQuery(r.URL.Query()))
	if err != nil {
		errorStatus("invalid date window", w, err)
		return
	}
	limit, page, err := pageParams(r)
	if err != nil {
		errorStatus("invalid pagination", w, err)
		return
	}

	filter := searchFilter(r.URL.Query().Get("query"), "name", "", "patientId", "phone")
	if finance.FiltersBranch(branch) {
		filter["branch"] = branch
	}
	if win != nil {
		filter["createdAt"] = bson.M{"$gte": win.Start, "$lte": win.End}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := databases.PaginatedOpts(limit, page).SetSort(bson.M{"createdAt": -1})
	patients, err := p.DB.Find(ctx, filter, opts)
	if err != nil {
		errorStatus("failed to search patients", w, models.NewStoreError("find patients", err))
		return
	}
	if patients == nil {
		patients = []models.Patient{}
	}
	writeJSON(w, http.StatusOK, patients)
}

// PatientByIDHandler returns a single patient
func (p Patient) PatientByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	patient, ok := p.load(ctx, w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

// PatientsByPhoneHandler returns the visible patients registered with a phone number
func (p Patient) PatientsByPhoneHandler(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["phone"]
	phone, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		errorStatus("invalid phone", w, models.NewValidationError("phone", "invalid phone %q", raw))
		return
	}

	filter := bson.M{"phone": phone}
	id := identity(r)
	if !id.IsAdmin() {
		filter["branch"] = id.Branch
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	patients, err := p.DB.Find(ctx, filter, options.Find().SetSort(bson.M{"patientId": 1}))
	if err != nil {
		errorStatus("failed to get patients by phone", w, models.NewStoreError("find patients", err))
		return
	}
	if len(patients) == 0 {
		errorStatus("patient not found", w, models.NotFoundf("patient with phone %d", phone))
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

// ReplaceTreatmentsHandler replaces the treatment list wholesale
func (p Patient) ReplaceTreatmentsHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TreatmentList
	if err := decodeBody(r, &req); err != nil {
		errorStatus("invalid treatments", w, err)
		return
	}
	treatments := models.CleanTreatments(req.Treatments)
	if err := models.ValidateEstimates(treatments); err != nil {
		errorStatus("invalid treatments", w, err)
		return
	}
	p.update(w, r, bson.M{"$set": bson.M{"treatments": treatments}})
}

// SetTreatmentsHandler records the chief complaints and replaces the treatment list
func (p Patient) SetTreatmentsHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TreatmentUpdate
	if err := decodeBody(r, &req); err != nil {
		errorStatus("invalid treatments", w, err)
		return
	}
	treatments := models.CleanTreatments(req.Treatments)
	if err := models.ValidateEstimates(treatments); err != nil {
		errorStatus("invalid treatments", w, err)
		return
	}
	set := bson.M{"treatments": treatments}
	if req.ChiefComplaints != nil {
		set["chiefComplaints"] = strings.TrimSpace(*req.ChiefComplaints)
	}
	p.update(w, r, bson.M{"$set": set})
}

// AddTreatmentHandler appends treatments, dating undated ones now
func (p Patient) AddTreatmentHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TreatmentList
	if err := decodeBody(r, &req); err != nil {
		errorStatus("invalid treatments", w, err)
		return
	}
	treatments := models.CleanTreatments(req.Treatments)
	if len(treatments) == 0 {
		errorStatus("invalid treatments", w, models.NewValidationError("treatments", "no treatment to add"))
		return
	}
	if err := models.ValidateEstimates(treatments); err != nil {
		errorStatus("invalid treatments", w, err)
		return
	}
	now := time.Now()
	for i := range treatments {
		if treatments[i].Date == nil {
			treatments[i].Date = &now
		}
	}
	p.update(w, r, bson.M{"$push": bson.M{"treatments": bson.M{"$each": treatments}}})
}

// UpdateTreatmentEstimateHandler changes the estimate of one treatment
func (p Patient) UpdateTreatmentEstimateHandler(w http.ResponseWriter, r *http.Request) {
	idx, err := indexVar(r, "index")
	if err != nil {
		errorStatus("invalid treatment index", w, err)
		return
	}
	var req models.EstimateUpdate
	if err := decodeBody(r, &req); err != nil {
		errorStatus("invalid estimate", w, err)
		return
	}
	p.updateElement(w, r, "treatments", idx, "estimate", req.Estimate)
}

// AddPaymentHandler records a payment under a freshly allocated invoice number
func (p Patient) AddPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if err := decodeBody(r, &req); err != nil {
		errorStatus("invalid payment", w, err)
		return
	}

	date := time.Now()
	if req.Date != "" {
		d, err := p.Resolver.ParseInstant(req.Date)
		if err != nil {
			errorStatus("invalid payment", w, err)
			return
		}
		date = d
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	patient, ok := p.load(ctx, w, r)
	if !ok {
		return
	}
	if req.TransactionID != "" {
		if _, taken := patient.PaymentByTransactionID(req.TransactionID); taken {
			errorStatus("invalid payment", w, models.NewValidationError("transactionId", "transaction %s already recorded", req.TransactionID))
			return
		}
	}

	invoiceNo, err := p.Numbers.Next(ctx)
	if err != nil {
		errorStatus("failed to allocate invoice number", w, err)
		return
	}
	payment := models.Payment{
		Amount:        req.Amount,
		Date:          &date,
		Mode:          req.Mode,
		TransactionID: strings.TrimSpace(req.TransactionID),
		InvoiceNo:     invoiceNo,
	}

	_, err = p.DB.UpdateOne(ctx,
		bson.M{"patientId": patient.PatientID},
		bson.M{
			"$push": bson.M{"payments": payment},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		errorStatus("failed to record payment", w, models.NewStoreError("push payment", err))
		return
	}
	p.Growth.InvalidateGrowth(ctx, patient.Branch, date)

	zap.S().Infow("payment recorded",
		"patientId", patient.PatientID,
		"invoiceNo", invoiceNo,
		"mode", payment.Mode)
	writeJSON(w, http.StatusCreated, payment)
}

// UpdatePaymentHandler changes the amount of one payment
func (p Patient) UpdatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	idx, err := indexVar(r, "index")
	if err != nil {
		errorStatus("invalid payment index", w, err)
		return
	}
	var req models.AmountUpdate
	if err := decodeBody(r, &req); err != nil {
		errorStatus("invalid amount", w, err)
		return
	}
	p.updateElement(w, r, "payments", idx, "amount", req.Amount)
}

// TreatmentTypesHandler lists the treatment types planned for a patient
func (p Patient) TreatmentTypesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	patient, ok := p.load(ctx, w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, patient.TreatmentTypes())
}

// load resolves the {id} route variable to a patient the caller may see
func (p Patient) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Patient, bool) {
	patientID, err := patientIDVar(r, "id")
	if err != nil {
		errorStatus("invalid patient id", w, err)
		return nil, false
	}
	patient, err := p.DB.FindOne(ctx, bson.M{"patientId": patientID})
	if err != nil {
		if !models.IsNotFound(err) {
			err = models.NewStoreError("find patient", err)
		}
		errorStatus("failed to get patient", w, err)
		return nil, false
	}
	if !api.CanAccessBranch(identity(r), patient.Branch) {
		errorStatus("patient not accessible", w, fmt.Errorf("patient %d: %w", patientID, models.ErrForbidden))
		return nil, false
	}
	return patient, true
}

// update applies update to the patient named by the route and returns the stored result
func (p Patient) update(w http.ResponseWriter, r *http.Request, update bson.M) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	patient, ok := p.load(ctx, w, r)
	if !ok {
		return
	}
	p.apply(ctx, w, patient.PatientID, update)
}

func (p Patient) updateElement(w http.ResponseWriter, r *http.Request, array string, idx int, field string, value interface{}) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	patient, ok := p.load(ctx, w, r)
	if !ok {
		return
	}
	size := len(patient.Treatments)
	if array == "payments" {
		size = len(patient.Payments)
	}
	if idx >= size {
		errorStatus("element not found", w, models.NotFoundf("%s index %d", array, idx))
		return
	}
	if !p.apply(ctx, w, patient.PatientID, bson.M{"$set": bson.M{fmt.Sprintf("%s.%d.%s", array, idx, field): value}}) {
		return
	}
	if array == "payments" && patient.Payments[idx].Date != nil {
		p.Growth.InvalidateGrowth(ctx, patient.Branch, *patient.Payments[idx].Date)
	}
}

// apply writes update and responds with the stored patient. It reports whether the
// update was stored.
func (p Patient) apply(ctx context.Context, w http.ResponseWriter, patientID int64, update bson.M) bool {
	set, _ := update["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		update["$set"] = set
	}
	set["updatedAt"] = time.Now()

	if _, err := p.DB.UpdateOne(ctx, bson.M{"patientId": patientID}, update); err != nil {
		errorStatus("failed to update patient", w, models.NewStoreError("update patient", err))
		return false
	}
	patient, err := p.DB.FindOne(ctx, bson.M{"patientId": patientID})
	if err != nil {
		errorStatus("failed to get patient", w, models.NewStoreError("find patient", err))
		return true
	}
	writeJSON(w, http.StatusOK, patient)
	return true
}

// searchFilter builds the free-text search used by the patient and warranty searches. A
// numeric query matches the numeric fields exactly, anything else is a case-insensitive
// match on the text fields.
func searchFilter(query string, textField, altTextField string, numericFields ...string) bson.M {
	query = strings.TrimSpace(query)
	if query == "" {
		return bson.M{}
	}
	if n, err := strconv.ParseInt(query, 10, 64); err == nil {
		or := make(bson.A, 0, len(numericFields))
		for _, f := range numericFields {
			or = append(or, bson.M{f: n})
		}
		return bson.M{"$or": or}
	}
	pattern := bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
	if altTextField == "" {
		return bson.M{textField: pattern}
	}
	return bson.M{"$or": bson.A{bson.M{textField: pattern}, bson.M{altTextField: pattern}}}
}
