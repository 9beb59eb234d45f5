package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/clinic-api/api"
	"github.com/linesmerrill/clinic-api/databases"
	"github.com/linesmerrill/clinic-api/models"
)

// Treatment serves the treatment catalogue
type Treatment struct {
	DB databases.TreatmentDatabase
}

// TreatmentsHandler lists the active catalogue entries by name
func (t Treatment) TreatmentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	treatments, err := t.DB.Find(ctx, bson.M{"isActive": true}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		errorStatus("failed to get treatments", w, models.NewStoreError("find treatments", err))
		return
	}
	if treatments == nil {
		treatments = []models.CatalogTreatment{}
	}
	writeJSON(w, http.StatusOK, treatments)
}
