package wizard

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bissquit/mediconnect-console/internal/backend"
	"github.com/bissquit/mediconnect-console/internal/domain"
	"github.com/bissquit/mediconnect-console/internal/forms"
	"github.com/bissquit/mediconnect-console/internal/pkg/httputil"
	"github.com/bissquit/mediconnect-console/internal/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Notification texts.
const (
	MsgHospitalRegistered = "Hospital registered successfully! Now add the administrator."
	MsgAdminRegistered    = "Hospital administrator registered successfully!"
	MsgHospitalFailed     = "Failed to register hospital"
	MsgAdminFailed        = "Failed to register administrator"
	MsgHospitalIDMissing  = "Hospital ID is missing"
)

// HospitalMessages are the field messages of the hospital step.
var HospitalMessages = forms.Messages{
	"name.required":          "Hospital name is required",
	"location.required":      "Location is required",
	"contactNumber.required": "Contact number must be at least 10 digits",
	"contactNumber.min":      "Contact number must be at least 10 digits",
	"contactNumber.et_phone": "Invalid Ethiopian phone number",
	"licenseNumber.required": "License number is required",
	"licenseImage.required":  "License image is required",
}

// AdminMessages are the field messages of the administrator step.
var AdminMessages = forms.Messages{
	"role":                 "Role is required",
	"email":                "Invalid email address",
	"password":             "Password must be at least 8 characters",
	"firstName.required":   "First name is required",
	"lastName.required":    "Last name is required",
	"dateOfBirth.required": "Date of birth is required",
	"dateOfBirth.datetime": "Date of birth must be a valid date",
	"gender":               "Gender is required",
}

// ErrorMappings turn wizard failures into banners.
var ErrorMappings = []httputil.ErrorMapping{
	{Error: ErrHospitalIDMissing, Status: http.StatusConflict, Message: MsgHospitalIDMissing},
}

// Registrar is the platform API the wizard writes to.
type Registrar interface {
	RegisterHospital(ctx context.Context, creds backend.Credentials, draft domain.HospitalDraft) (string, error)
	RegisterHospitalAdmin(ctx context.Context, creds backend.Credentials, draft domain.AdminDraft, hospitalID string) error
}

// Service runs wizard submissions.
type Service struct {
	registrar Registrar
	validator *forms.Validator
	inflight  singleflight.Group
}

// NewService creates a new wizard service.
func NewService(registrar Registrar, validator *forms.Validator) *Service {
	return &Service{
		registrar: registrar,
		validator: validator,
	}
}

// SubmitHospital validates and registers the hospital. On success the
// returned state is AdminInfo carrying the new hospital identifier; on any
// error the input state is returned unchanged. Concurrent submissions under
// the same key share one platform call.
func (s *Service) SubmitHospital(ctx context.Context, key string, creds backend.Credentials, state State, draft domain.HospitalDraft) (State, error) {
	if err := s.validator.Check(draft, HospitalMessages); err != nil {
		record(StepHospitalInfo, "invalid")
		return state, err
	}

	// Duplicates wait on this call, so it must not die with the first
	// caller's request. The client timeout still bounds it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.inflight.Do(key+"/hospital", func() (interface{}, error) {
		return s.registrar.RegisterHospital(shared, creds, draft)
	})
	if err != nil {
		record(StepHospitalInfo, outcome(err))
		return state, fmt.Errorf("register hospital: %w", err)
	}

	next, err := state.HospitalCreated(v.(string))
	if err != nil {
		record(StepHospitalInfo, "error")
		return state, err
	}

	record(StepHospitalInfo, "ok")
	return next, nil
}

// SubmitAdmin validates and registers the administrator for the hospital
// carried by step. On success the wizard starts over.
func (s *Service) SubmitAdmin(ctx context.Context, key string, creds backend.Credentials, step AdminStep, draft domain.AdminDraft) (State, error) {
	current := State{step: StepAdminInfo, hospitalID: step.hospitalID}
	if step.hospitalID == "" {
		record(StepAdminInfo, "missing_id")
		return State{}, ErrHospitalIDMissing
	}

	if err := s.validator.Check(draft, AdminMessages); err != nil {
		record(StepAdminInfo, "invalid")
		return current, err
	}

	shared := context.WithoutCancel(ctx)
	_, err, _ := s.inflight.Do(key+"/admin", func() (interface{}, error) {
		return nil, s.registrar.RegisterHospitalAdmin(shared, creds, draft, step.hospitalID)
	})
	if err != nil {
		record(StepAdminInfo, outcome(err))
		return current, fmt.Errorf("register hospital admin: %w", err)
	}

	record(StepAdminInfo, "ok")
	return step.Completed(), nil
}

func outcome(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return "rejected"
	}
	return "error"
}

func record(step Step, outcome string) {
	metrics.WizardSubmissions.WithLabelValues(string(step), outcome).Inc()
}
