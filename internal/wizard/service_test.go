package wizard

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bissquit/mediconnect-console/internal/backend"
	"github.com/bissquit/mediconnect-console/internal/domain"
	"github.com/bissquit/mediconnect-console/internal/forms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRegistrar implements Registrar for testing.
type mockRegistrar struct {
	mu sync.Mutex

	hospitalID  string
	hospitalErr error
	adminErr    error

	hospitalCalls []domain.HospitalDraft
	adminCalls    []adminCall

	// entered and block, when set, signal entry to RegisterHospital and
	// hold it until block is closed.
	entered chan struct{}
	block   chan struct{}
}

type adminCall struct {
	draft      domain.AdminDraft
	hospitalID string
}

func (m *mockRegistrar) RegisterHospital(ctx context.Context, _ backend.Credentials, draft domain.HospitalDraft) (string, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hospitalCalls = append(m.hospitalCalls, draft)
	return m.hospitalID, m.hospitalErr
}

func (m *mockRegistrar) RegisterHospitalAdmin(_ context.Context, _ backend.Credentials, draft domain.AdminDraft, hospitalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adminCalls = append(m.adminCalls, adminCall{draft: draft, hospitalID: hospitalID})
	return m.adminErr
}

func validHospital() domain.HospitalDraft {
	return domain.HospitalDraft{
		Name:          "Saint Gabriel Hospital",
		Location:      "Addis Ababa, Bole",
		ContactNumber: "+251912345678",
		LicenseNumber: "AB1234567890",
		LicenseImage:  "https://cdn.example.com/licenses/ab123.png",
	}
}

func validAdmin() domain.AdminDraft {
	d := domain.NewAdminDraft()
	d.Email = "admin@hospital.com"
	d.Password = "password123"
	d.FirstName = "John"
	d.LastName = "Doe"
	d.DateOfBirth = "1985-04-12"
	d.Gender = domain.GenderFemale
	return d
}

func newTestService(reg *mockRegistrar) *Service {
	return NewService(reg, forms.NewValidator())
}

func adminState(t *testing.T, id string) (State, AdminStep) {
	t.Helper()
	s, err := State{}.HospitalCreated(id)
	require.NoError(t, err)
	step, err := s.Admin()
	require.NoError(t, err)
	return s, step
}

func TestSubmitHospital_InvalidPhoneMakesNoCall(t *testing.T) {
	reg := &mockRegistrar{hospitalID: "abc123"}
	svc := newTestService(reg)

	draft := validHospital()
	draft.ContactNumber = "12345"

	next, err := svc.SubmitHospital(context.Background(), "sess", nil, State{}, draft)

	require.Error(t, err)
	fields := forms.FieldErrors(err)
	require.NotNil(t, fields)
	assert.Equal(t, "Contact number must be at least 10 digits", fields["contactNumber"])
	assert.Equal(t, StepHospitalInfo, next.Step())
	assert.Empty(t, reg.hospitalCalls)
}

func TestSubmitHospital_WrongRegionPhone(t *testing.T) {
	reg := &mockRegistrar{hospitalID: "abc123"}
	svc := newTestService(reg)

	draft := validHospital()
	draft.ContactNumber = "+15551234567"

	_, err := svc.SubmitHospital(context.Background(), "sess", nil, State{}, draft)

	assert.Equal(t, "Invalid Ethiopian phone number", forms.FieldErrors(err)["contactNumber"])
	assert.Empty(t, reg.hospitalCalls)
}

func TestSubmitHospital_AllFieldsRequired(t *testing.T) {
	reg := &mockRegistrar{hospitalID: "abc123"}
	svc := newTestService(reg)

	_, err := svc.SubmitHospital(context.Background(), "sess", nil, State{}, domain.HospitalDraft{})

	fields := forms.FieldErrors(err)
	assert.Equal(t, map[string]string{
		"name":          "Hospital name is required",
		"location":      "Location is required",
		"contactNumber": "Contact number must be at least 10 digits",
		"licenseNumber": "License number is required",
		"licenseImage":  "License image is required",
	}, fields)
	assert.Empty(t, reg.hospitalCalls)
}

func TestSubmitHospital_SuccessCarriesID(t *testing.T) {
	reg := &mockRegistrar{hospitalID: "abc123"}
	svc := newTestService(reg)

	next, err := svc.SubmitHospital(context.Background(), "sess", nil, State{}, validHospital())

	require.NoError(t, err)
	assert.Equal(t, StepAdminInfo, next.Step())
	step, err := next.Admin()
	require.NoError(t, err)
	assert.Equal(t, "abc123", step.HospitalID())
	assert.Len(t, reg.hospitalCalls, 1)
}

func TestSubmitHospital_ServerErrorKeepsState(t *testing.T) {
	reg := &mockRegistrar{hospitalErr: &backend.APIError{Status: http.StatusConflict, Message: "License number already registered"}}
	svc := newTestService(reg)

	next, err := svc.SubmitHospital(context.Background(), "sess", nil, State{}, validHospital())

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "License number already registered", apiErr.Message)
	assert.Equal(t, StepHospitalInfo, next.Step())
}

func TestSubmitHospital_ConcurrentDuplicatesShareOneCall(t *testing.T) {
	reg := &mockRegistrar{
		hospitalID: "abc123",
		entered:    make(chan struct{}, 2),
		block:      make(chan struct{}),
	}
	svc := newTestService(reg)

	var wg sync.WaitGroup
	results := make([]State, 2)
	errs := make([]error, 2)

	submit := func(i int) {
		defer wg.Done()
		results[i], errs[i] = svc.SubmitHospital(context.Background(), "sess", nil, State{}, validHospital())
	}

	wg.Add(2)
	go submit(0)
	<-reg.entered

	go submit(1)
	// The second submission joins the call already in flight.
	time.Sleep(50 * time.Millisecond)
	close(reg.block)
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		step, err := results[i].Admin()
		require.NoError(t, err)
		assert.Equal(t, "abc123", step.HospitalID())
	}
	assert.Len(t, reg.hospitalCalls, 1)
}

func TestSubmitHospital_FirstCallerCancelDoesNotFailDuplicates(t *testing.T) {
	reg := &mockRegistrar{
		hospitalID: "abc123",
		entered:    make(chan struct{}, 2),
		block:      make(chan struct{}),
	}
	svc := newTestService(reg)

	firstCtx, cancelFirst := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	var firstErr, secondErr error
	var second State

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, firstErr = svc.SubmitHospital(firstCtx, "sess", nil, State{}, validHospital())
	}()
	<-reg.entered

	go func() {
		defer wg.Done()
		second, secondErr = svc.SubmitHospital(context.Background(), "sess", nil, State{}, validHospital())
	}()
	time.Sleep(50 * time.Millisecond)

	// The first browser goes away while the platform call is in flight.
	cancelFirst()
	close(reg.block)
	wg.Wait()

	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	step, err := second.Admin()
	require.NoError(t, err)
	assert.Equal(t, "abc123", step.HospitalID())
	assert.Len(t, reg.hospitalCalls, 1)
}

func TestSubmitAdmin_MissingHospitalIDMakesNoCall(t *testing.T) {
	reg := &mockRegistrar{}
	svc := newTestService(reg)

	next, err := svc.SubmitAdmin(context.Background(), "sess", nil, AdminStep{}, validAdmin())

	assert.ErrorIs(t, err, ErrHospitalIDMissing)
	assert.Equal(t, StepHospitalInfo, next.Step())
	assert.Empty(t, reg.adminCalls)
}

func TestSubmitAdmin_ValidationErrors(t *testing.T) {
	reg := &mockRegistrar{}
	svc := newTestService(reg)
	state, step := adminState(t, "abc123")

	draft := validAdmin()
	draft.Email = "not-an-email"
	draft.Password = "short"
	draft.Gender = "Unknown"
	draft.Role = domain.RoleReceptionist

	next, err := svc.SubmitAdmin(context.Background(), "sess", nil, step, draft)

	fields := forms.FieldErrors(err)
	assert.Equal(t, "Invalid email address", fields["email"])
	assert.Equal(t, "Password must be at least 8 characters", fields["password"])
	assert.Equal(t, "Gender is required", fields["gender"])
	assert.Equal(t, "Role is required", fields["role"])
	assert.Equal(t, state, next)
	assert.Empty(t, reg.adminCalls)
}

func TestSubmitAdmin_SuccessSendsHospitalIDAndLoops(t *testing.T) {
	reg := &mockRegistrar{}
	svc := newTestService(reg)
	_, step := adminState(t, "abc123")

	next, err := svc.SubmitAdmin(context.Background(), "sess", nil, step, validAdmin())

	require.NoError(t, err)
	assert.Equal(t, State{}, next)
	require.Len(t, reg.adminCalls, 1)
	assert.Equal(t, "abc123", reg.adminCalls[0].hospitalID)
	assert.Equal(t, "admin@hospital.com", reg.adminCalls[0].draft.Email)
}

func TestSubmitAdmin_ServerErrorStaysInAdminInfo(t *testing.T) {
	reg := &mockRegistrar{adminErr: &backend.APIError{Status: http.StatusConflict, Message: "Email already in use"}}
	svc := newTestService(reg)
	state, step := adminState(t, "abc123")

	next, err := svc.SubmitAdmin(context.Background(), "sess", nil, step, validAdmin())

	require.Error(t, err)
	assert.Equal(t, state, next)
	assert.Equal(t, StepAdminInfo, next.Step())
}
