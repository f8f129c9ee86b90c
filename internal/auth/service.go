// Package auth implements the console login flow.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bissquit/mediconnect-console/internal/backend"
	"github.com/bissquit/mediconnect-console/internal/domain"
	"github.com/bissquit/mediconnect-console/internal/forms"
	"github.com/bissquit/mediconnect-console/internal/pkg/httputil"
	"github.com/bissquit/mediconnect-console/internal/pkg/metrics"
)

// Login messages.
const (
	MsgLoginSuccess = "Login successful"
	MsgLoginFailed  = "Login failed"
	MsgRateLimited  = "Too many login attempts. Please wait and try again."
)

// ErrRateLimited is returned when a client submits logins too quickly.
var ErrRateLimited = errors.New("login rate limit exceeded")

// LoginForm is the login page submission.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Role     string `form:"role" validate:"required,oneof=Admin HospitalAdministrator Receptionist Doctor Triage LabTechnician Pharmacist"`
}

// LoginMessages are the field messages for LoginForm.
var LoginMessages = forms.Messages{
	"username": "Username is required",
	"password": "Password is required",
	"role":     "Role is required",
}

// ErrorMappings turn login failures into banners.
var ErrorMappings = []httputil.ErrorMapping{
	{Error: ErrRateLimited, Status: http.StatusTooManyRequests, Message: MsgRateLimited},
}

// Platform is the part of the platform API the login flow needs.
type Platform interface {
	Login(ctx context.Context, req backend.LoginRequest) (backend.Credentials, error)
}

// Service validates login submissions and exchanges them for platform
// session cookies.
type Service struct {
	platform  Platform
	validator *forms.Validator
	limiter   *Limiter
}

// NewService creates a login service. A nil limiter disables rate limiting.
func NewService(platform Platform, validator *forms.Validator, limiter *Limiter) *Service {
	return &Service{
		platform:  platform,
		validator: validator,
		limiter:   limiter,
	}
}

// Login validates form and, when it passes, submits it to the platform and
// returns the cookies it set. The platform, not the form, decides the role
// the caller ends up with. clientKey identifies the caller for rate
// limiting. Validation failures return a *forms.ValidationError and never
// reach the platform.
func (s *Service) Login(ctx context.Context, clientKey string, form LoginForm) (backend.Credentials, error) {
	form.Username = strings.TrimSpace(form.Username)

	if err := s.validator.Check(form, LoginMessages); err != nil {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if s.limiter != nil && !s.limiter.Allow(clientKey) {
		metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
		return nil, ErrRateLimited
	}

	// Check guarantees the role parses.
	role, _ := domain.ParseRole(form.Role)

	creds, err := s.platform.Login(ctx, backend.LoginRequest{
		Email:    form.Username,
		Password: form.Password,
		Role:     role,
	})
	if err != nil {
		metrics.LoginAttempts.WithLabelValues(outcome(err)).Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	return creds, nil
}

func outcome(err error) string {
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr):
		return "rejected"
	case errors.Is(err, backend.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
