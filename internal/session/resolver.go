package session

import (
	"context"
	"errors"

	"github.com/bissquit/mediconnect-console/internal/backend"
	"github.com/bissquit/mediconnect-console/internal/domain"
	"github.com/bissquit/mediconnect-console/internal/pkg/ctxlog"
)

// UserFetcher asks the platform who owns a set of credentials.
type UserFetcher interface {
	CurrentUser(ctx context.Context, creds backend.Credentials) (domain.Role, error)
}

// Resolver determines the signed-in role for a session.
type Resolver struct {
	users UserFetcher
}

// NewResolver creates a resolver backed by users.
func NewResolver(users UserFetcher) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns the caller's role, or false when the caller is not signed
// in, has a role outside the known set, or the platform could not be asked.
// Empty credentials resolve to false without a call.
func (r *Resolver) Resolve(ctx context.Context, creds backend.Credentials) (domain.Role, bool) {
	if len(creds) == 0 {
		return "", false
	}

	role, err := r.users.CurrentUser(ctx, creds)
	if err != nil {
		logger := ctxlog.FromContext(ctx)
		if errors.Is(err, backend.ErrUnauthenticated) {
			logger.Debug("session not recognized by platform")
		} else {
			logger.Warn("failed to resolve session role", "error", err)
		}
		return "", false
	}

	return role, true
}
