package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/linesmerrill/clinic-api/models"
)

// Identity is the authenticated caller attached to every request by the auth middleware
type Identity struct {
	Email           string
	CapabilityLevel int
	Branch          string
}

// IsAdmin reports whether the identity may look across branches
func (id Identity) IsAdmin() bool {
	return id.CapabilityLevel >= models.CapabilityAdmin
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// ResolveBranch decides which branch a request is answered for. Admins and managers get
// what they asked for, with an empty request meaning every branch. Plain users are pinned
// to their own branch and asking for any other one is forbidden.
func ResolveBranch(id Identity, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if id.IsAdmin() {
		if requested == "" {
			return models.AllBranches, nil
		}
		return requested, nil
	}

	if id.Branch == "" {
		return "", fmt.Errorf("user %s has no branch: %w", id.Email, models.ErrForbidden)
	}
	if requested == "" || requested == id.Branch {
		return id.Branch, nil
	}
	return "", fmt.Errorf("branch %q: %w", requested, models.ErrForbidden)
}

// CanAccessBranch reports whether id may read records belonging to branch
func CanAccessBranch(id Identity, branch string) bool {
	if id.IsAdmin() {
		return true
	}
	return id.Branch != "" && id.Branch == branch
}
