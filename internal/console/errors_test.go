package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bissquit/mediconnect-console/internal/auth"
	"github.com/bissquit/mediconnect-console/internal/backend"
	"github.com/bissquit/mediconnect-console/internal/domain"
	"github.com/bissquit/mediconnect-console/internal/pkg/httputil"
	"github.com/bissquit/mediconnect-console/internal/wizard"
)

func TestNotificationFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		mappings   []httputil.ErrorMapping
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "login rate limit",
			err:        fmt.Errorf("login: %w", auth.ErrRateLimited),
			mappings:   auth.ErrorMappings,
			wantStatus: http.StatusTooManyRequests,
			wantMsg:    auth.MsgRateLimited,
		},
		{
			name:       "wizard missing hospital id",
			err:        wizard.ErrHospitalIDMissing,
			mappings:   wizard.ErrorMappings,
			wantStatus: http.StatusConflict,
			wantMsg:    wizard.MsgHospitalIDMissing,
		},
		{
			name:       "unavailable platform",
			err:        fmt.Errorf("login: %w", backend.ErrUnavailable),
			mappings:   auth.ErrorMappings,
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    backend.UnavailableMessage,
		},
		{
			name:       "rejection with server message",
			err:        &backend.APIError{Status: http.StatusBadRequest, Message: "Email already in use"},
			wantStatus: http.StatusOK,
			wantMsg:    "Email already in use",
		},
		{
			name:       "rejection without message uses fallback",
			err:        &backend.APIError{Status: http.StatusUnauthorized},
			wantStatus: http.StatusOK,
			wantMsg:    auth.MsgLoginFailed,
		},
		{
			name:       "server error",
			err:        &backend.APIError{Status: http.StatusInternalServerError},
			wantStatus: http.StatusBadGateway,
			wantMsg:    auth.MsgLoginFailed,
		},
		{
			name:       "malformed response",
			err:        fmt.Errorf("me: %w", backend.ErrMalformedResponse),
			wantStatus: http.StatusBadGateway,
			wantMsg:    auth.MsgLoginFailed,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    httputil.GenericFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, n := notificationFor(context.Background(), tt.err, auth.MsgLoginFailed, tt.mappings)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, domain.Failure(tt.wantMsg), n)
		})
	}
}
