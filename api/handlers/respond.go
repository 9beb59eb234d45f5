package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/linesmerrill/clinic-api/api"
	"github.com/linesmerrill/clinic-api/config"
	"github.com/linesmerrill/clinic-api/models"
)

var validate = validator.New()

// errorStatus maps the error taxonomy onto a status code and writes the error response
func errorStatus(message string, w http.ResponseWriter, err error) {
	config.ErrorStatus(message, statusFor(err), w, err)
}

func statusFor(err error) int {
	var ve *models.ValidationError
	var fe validator.ValidationErrors
	switch {
	case errors.As(err, &ve), errors.As(err, &fe):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case models.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

// decodeBody reads a JSON body into v and runs the struct validations on it
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.NewValidationError("body", "invalid request body: %v", err)
	}
	if err := validate.Struct(v); err != nil {
		var fe validator.ValidationErrors
		if errors.As(err, &fe) && len(fe) > 0 {
			return models.NewValidationError(fe[0].Field(), "failed on the '%s' rule", fe[0].Tag())
		}
		return err
	}
	return nil
}

// identity returns the caller placed on the context by the auth middleware. Routes are
// only reachable through that middleware, so a missing identity is treated as a user
// without any branch.
func identity(r *http.Request) api.Identity {
	id, _ := api.IdentityFromContext(r.Context())
	return id
}

// requestedBranch resolves the branch query parameter against the caller's access
func requestedBranch(r *http.Request) (string, error) {
	return api.ResolveBranch(identity(r), r.URL.Query().Get("branch"))
}

// patientIDVar parses a numeric patient id route variable
func patientIDVar(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(mux.Vars(r)[name])
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError(name, "invalid patient id %q", raw)
	}
	return id, nil
}

// indexVar parses a non-negative array index route variable
func indexVar(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		return 0, models.NewValidationError(name, "invalid index %q", raw)
	}
	return idx, nil
}

// pageParams reads limit and page, both optional. A missing limit disables pagination.
func pageParams(r *http.Request) (limit, page int, err error) {
	q := r.URL.Query()
	if s := q.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
			return 0, 0, models.NewValidationError("limit", "invalid limit %q", s)
		}
	}
	page = 1
	if s := q.Get("page"); s != "" {
		if page, err = strconv.Atoi(s); err != nil || page < 1 {
			return 0, 0, models.NewValidationError("page", "invalid page %q", s)
		}
	}
	return limit, page, nil
}
