package tools

import (
	"context"
	"strings"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
)

// Caller is the authenticated identity a request runs as
type Caller struct {
	UserID    string
	FamilyID  string
	IPAddress string
	UserAgent string
}

type callerKey struct{}

// WithCaller attaches an authenticated caller to ctx
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller attached to ctx, if any
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// resolveUserID picks the user a tool call is scoped to. An authenticated
// caller may only query their own data.
func resolveUserID(ctx context.Context, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	caller, authenticated := CallerFrom(ctx)

	switch {
	case authenticated && caller.UserID != "" && requested == "":
		return caller.UserID, nil
	case authenticated && caller.UserID != "" && requested != caller.UserID:
		return "", &apperr.PrivacyViolationError{Reason: "user_id does not match the authenticated user"}
	case requested == "":
		return "", &apperr.InvalidArgumentError{Field: "user_id", Reason: "is required"}
	default:
		return requested, nil
	}
}

// authorizeFamily checks an authenticated caller belongs to familyID
func authorizeFamily(ctx context.Context, familyID string) error {
	caller, authenticated := CallerFrom(ctx)
	if !authenticated {
		return nil
	}
	if caller.FamilyID == "" || caller.FamilyID != familyID {
		return &apperr.PrivacyViolationError{Reason: "caller is not a member of the requested family"}
	}
	return nil
}
