package handlers

import (
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-api/api"
	"github.com/linesmerrill/clinic-api/databases"
	"github.com/linesmerrill/clinic-api/models"
)

// Warranty exported for testing purposes
type Warranty struct {
	DB  databases.WarrantyDatabase
	PDB databases.PatientDatabase
}

// CreateWarrantyHandler issues a lab warranty for an existing patient
func (c Warranty) CreateWarrantyHandler(w http.ResponseWriter, r *http.Request) {
	var warranty models.Warranty
	if err := decodeBody(r, &warranty); err != nil {
		errorStatus("invalid warranty", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	patient, err := c.PDB.FindOne(ctx, bson.M{"patientId": warranty.PatientID},
		options.FindOne().SetProjection(bson.M{"patientId": 1, "branch": 1}))
	if err != nil {
		if !models.IsNotFound(err) {
			err = models.NewStoreError("find patient", err)
		}
		errorStatus("failed to get patient", w, err)
		return
	}
	if !api.CanAccessBranch(identity(r), patient.Branch) {
		errorStatus("patient not accessible", w, fmt.Errorf("patient %d: %w", warranty.PatientID, models.ErrForbidden))
		return
	}

	if err := c.DB.InsertOne(ctx, &warranty); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			errorStatus("invalid warranty", w, models.NewValidationError("warrantyId", "warranty %s already exists", warranty.WarrantyID))
			return
		}
		errorStatus("failed to create warranty", w, models.NewStoreError("insert warranty", err))
		return
	}
	zap.S().Infow("warranty issued",
		"warrantyId", warranty.WarrantyID,
		"patientId", warranty.PatientID)
	writeJSON(w, http.StatusCreated, warranty)
}

// SearchWarrantyHandler finds warranties by patient name, warranty id, patientId or phone
// and joins each with the current address and branch of its patient
func (c Warranty) SearchWarrantyHandler(w http.ResponseWriter, r *http.Request) {
	filter := searchFilter(r.URL.Query().Get("query"), "patientName", "warrantyId", "patientId", "patientPhone")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	warranties, err := c.DB.Find(ctx, filter, options.Find().SetSort(bson.M{"_id": -1}))
	if err != nil {
		errorStatus("failed to search warranties", w, models.NewStoreError("find warranties", err))
		return
	}

	ids := make(bson.A, 0, len(warranties))
	seen := make(map[int64]bool, len(warranties))
	for _, wt := range warranties {
		if !seen[wt.PatientID] {
			seen[wt.PatientID] = true
			ids = append(ids, wt.PatientID)
		}
	}

	live := map[int64]models.Patient{}
	if len(ids) > 0 {
		patients, err := c.PDB.Find(ctx, bson.M{"patientId": bson.M{"$in": ids}},
			options.Find().SetProjection(bson.M{"patientId": 1, "address": 1, "branch": 1}))
		if err != nil {
			errorStatus("failed to search warranties", w, models.NewStoreError("find patients", err))
			return
		}
		for _, p := range patients {
			live[p.PatientID] = p
		}
	}

	id := identity(r)
	results := make([]models.WarrantyWithPatient, 0, len(warranties))
	for _, wt := range warranties {
		joined := models.WarrantyWithPatient{Warranty: wt, Address: wt.PatientAddress}
		if p, ok := live[wt.PatientID]; ok {
			joined.Address = p.Address
			joined.Branch = p.Branch
		}
		if !api.CanAccessBranch(id, joined.Branch) {
			continue
		}
		results = append(results, joined)
	}
	writeJSON(w, http.StatusOK, results)
}
