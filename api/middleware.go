package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/clinic-api/databases"
	"github.com/linesmerrill/clinic-api/models"
)

// TokenTTL is how long an issued login token stays valid
const TokenTTL = 24 * time.Hour

// tokenCacheTTL bounds how long a verified token is trusted without re-verification
const tokenCacheTTL = 10 * time.Minute

const (
	extCapability = "capabilityLevel"
	extBranch     = "branch"
)

// MiddlewareDB authenticates requests against the users collection
type MiddlewareDB struct {
	DB     databases.UserDatabase
	Secret []byte

	// Now is used for token issue and expiry, time.Now when nil
	Now func() time.Time

	authenticator auth.Authenticator
}

// SetupGoGuardian enables the basic (email/password) and bearer (signed token) strategies
func (m *MiddlewareDB) SetupGoGuardian() {
	m.authenticator = auth.New()
	basicCache := store.NewFIFO(context.Background(), tokenCacheTTL)
	tokenCache := store.NewFIFO(context.Background(), tokenCacheTTL)

	basicStrategy := basic.New(m.ValidateUser, basicCache)
	tokenStrategy := bearer.New(m.VerifyToken, tokenCache)

	m.authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	m.authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// Middleware rejects unauthenticated requests and puts the caller's Identity on the context
func (m *MiddlewareDB) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := m.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Warnw("unauthorized",
				"url", r.URL.Path,
				"error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}

		id := identityFromInfo(info)
		zap.S().Debugw("authenticated",
			"email", id.Email,
			"capabilityLevel", id.CapabilityLevel,
			"branch", id.Branch)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// ValidateUser checks an email/password pair against the stored bcrypt hash
func (m *MiddlewareDB) ValidateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	qctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	user, err := m.DB.FindByEmail(qctx, email)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, fmt.Errorf("no matching email found")
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return userInfo(user.Email, user.ID.Hex(), user.CapabilityLevel, user.Branch), nil
}

// IssueToken signs a token carrying the user's email, capability level and branch
func (m *MiddlewareDB) IssueToken(user *models.User) (string, error) {
	if len(m.Secret) == 0 {
		return "", errors.New("token secret is not configured")
	}
	now := m.now()
	claims := jwt.MapClaims{
		"email":       user.Email,
		extCapability: user.CapabilityLevel,
		extBranch:     user.Branch,
		"iat":         now.Unix(),
		"exp":         now.Add(TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
}

// VerifyToken parses and validates a token issued by IssueToken
func (m *MiddlewareDB) VerifyToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	if len(m.Secret) == 0 {
		return nil, errors.New("token secret is not configured")
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return m.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, errors.New("token has no email")
	}
	branch, _ := claims[extBranch].(string)
	capability := models.CapabilityUser
	if v, ok := claims[extCapability].(float64); ok {
		capability = int(v)
	}
	return userInfo(email, email, capability, branch), nil
}

func (m *MiddlewareDB) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func userInfo(email, id string, capability int, branch string) auth.Info {
	return auth.NewDefaultUser(email, id, nil, map[string][]string{
		extCapability: {strconv.Itoa(capability)},
		extBranch:     {branch},
	})
}

func identityFromInfo(info auth.Info) Identity {
	id := Identity{Email: info.UserName(), CapabilityLevel: models.CapabilityUser}
	ext := info.Extensions()
	if v := ext[extCapability]; len(v) > 0 {
		if n, err := strconv.Atoi(v[0]); err == nil && n > 0 {
			id.CapabilityLevel = n
		}
	}
	if v := ext[extBranch]; len(v) > 0 {
		id.Branch = v[0]
	}
	return id
}
