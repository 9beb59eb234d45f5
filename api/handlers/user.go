package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/clinic-api/api"
	"github.com/linesmerrill/clinic-api/config"
	"github.com/linesmerrill/clinic-api/databases"
	"github.com/linesmerrill/clinic-api/models"
)

const minPasswordLength = 6

// TokenIssuer signs login tokens
type TokenIssuer interface {
	IssueToken(user *models.User) (string, error)
}

// User exported for testing purposes
type User struct {
	DB     databases.UserDatabase
	Tokens TokenIssuer
}

// LoginHandler exchanges an email and password for a signed token
func (u User) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		errorStatus("invalid login", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil && !models.IsNotFound(err) {
		errorStatus("failed to get user", w, models.NewStoreError("find user", err))
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, fmt.Errorf("login failed for %s", req.Email))
		return
	}

	token, err := u.Tokens.IssueToken(user)
	if err != nil {
		config.ErrorStatus("failed to issue token", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("user logged in", "email", user.Email)
	writeJSON(w, http.StatusOK, models.LoginResponse{
		Email:           user.Email,
		CapabilityLevel: user.CapabilityLevel,
		Branch:          user.Branch,
		Token:           token,
	})
}

// RegisterHandler creates a plain user for a branch
func (u User) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UserRequest
	if err := decodeBody(r, &req); err != nil {
		errorStatus("invalid user", w, err)
		return
	}
	req.CapabilityLevel = nil
	if strings.TrimSpace(req.Branch) == "" {
		errorStatus("invalid user", w, models.NewValidationError("branch", "branch required"))
		return
	}
	u.create(w, r, req)
}

// CreateUserHandler lets an admin create a user of any capability level
func (u User) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var req models.UserRequest
	if err := decodeBody(r, &req); err != nil {
		errorStatus("invalid user", w, err)
		return
	}
	u.create(w, r, req)
}

// UsersHandler lists every user
func (u User) UsersHandler(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	users, err := u.DB.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"email": 1}))
	if err != nil {
		errorStatus("failed to get users", w, models.NewStoreError("find users", err))
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// UpdateUserHandler changes the email, password, capability level or branch of a user
func (u User) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	oid, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		errorStatus("invalid user id", w, models.NewValidationError("id", "%v", err))
		return
	}
	var req models.UserRequest
	if err := decodeBody(r, &req); err != nil {
		errorStatus("invalid user", w, err)
		return
	}

	set := bson.M{
		"email":     strings.ToLower(strings.TrimSpace(req.Email)),
		"updatedAt": time.Now(),
	}
	if req.Password != "" {
		hash, err := hashPassword(req.Password)
		if err != nil {
			errorStatus("invalid user", w, err)
			return
		}
		set["password"] = hash
	}
	if req.CapabilityLevel != nil {
		set["capabilityLevel"] = *req.CapabilityLevel
	}
	if b := strings.TrimSpace(req.Branch); b != "" {
		set["branch"] = b
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	matched, err := u.DB.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			errorStatus("invalid user", w, models.NewValidationError("email", "email already registered"))
			return
		}
		errorStatus("failed to update user", w, models.NewStoreError("update user", err))
		return
	}
	if matched == 0 {
		errorStatus("user not found", w, models.NotFoundf("user %s", oid.Hex()))
		return
	}

	user, err := u.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		errorStatus("failed to get user", w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUserHandler removes a user
func (u User) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	oid, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		errorStatus("invalid user id", w, models.NewValidationError("id", "%v", err))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	deleted, err := u.DB.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		errorStatus("failed to delete user", w, models.NewStoreError("delete user", err))
		return
	}
	if deleted == 0 {
		errorStatus("user not found", w, models.NotFoundf("user %s", oid.Hex()))
		return
	}
	zap.S().Infow("user deleted", "id", oid.Hex(), "by", identity(r).Email)
	w.WriteHeader(http.StatusNoContent)
}

func (u User) create(w http.ResponseWriter, r *http.Request, req models.UserRequest) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		errorStatus("invalid user", w, err)
		return
	}
	capability := models.CapabilityUser
	if req.CapabilityLevel != nil {
		capability = *req.CapabilityLevel
	}

	now := time.Now()
	user := &models.User{
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Password:        hash,
		CapabilityLevel: capability,
		Branch:          strings.TrimSpace(req.Branch),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := u.DB.FindByEmail(ctx, user.Email)
	if err != nil && !models.IsNotFound(err) {
		errorStatus("failed to get user", w, models.NewStoreError("find user", err))
		return
	}
	if existing != nil {
		errorStatus("invalid user", w, models.NewValidationError("email", "email already registered"))
		return
	}

	if err := u.DB.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			errorStatus("invalid user", w, models.NewValidationError("email", "email already registered"))
			return
		}
		errorStatus("failed to create user", w, models.NewStoreError("insert user", err))
		return
	}
	zap.S().Infow("user created",
		"email", user.Email,
		"capabilityLevel", user.CapabilityLevel,
		"branch", user.Branch)
	writeJSON(w, http.StatusCreated, user)
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", models.NewValidationError("password", "must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// requireAdmin answers 403 unless the caller may manage users
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	id := identity(r)
	if id.IsAdmin() {
		return true
	}
	errorStatus("admin access required", w, fmt.Errorf("%s: %w", id.Email, models.ErrForbidden))
	return false
}
