package wizard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_ZeroValueIsHospitalInfo(t *testing.T) {
	var s State

	assert.Equal(t, StepHospitalInfo, s.Step())

	_, err := s.Admin()
	assert.ErrorIs(t, err, ErrHospitalIDMissing)
}

func TestState_HospitalCreated(t *testing.T) {
	s, err := State{}.HospitalCreated("abc123")
	require.NoError(t, err)

	assert.Equal(t, StepAdminInfo, s.Step())
	admin, err := s.Admin()
	require.NoError(t, err)
	assert.Equal(t, "abc123", admin.HospitalID())
}

func TestState_HospitalCreatedRequiresID(t *testing.T) {
	s, err := State{}.HospitalCreated("")

	assert.ErrorIs(t, err, ErrHospitalIDMissing)
	assert.Equal(t, StepHospitalInfo, s.Step())
}

func TestState_HospitalCreatedAgainReplacesHospital(t *testing.T) {
	s, err := State{}.HospitalCreated("first")
	require.NoError(t, err)

	s, err = s.HospitalCreated("second")
	require.NoError(t, err)

	admin, err := s.Admin()
	require.NoError(t, err)
	assert.Equal(t, "second", admin.HospitalID())
}

func TestState_BackForgetsHospital(t *testing.T) {
	s, err := State{}.HospitalCreated("abc123")
	require.NoError(t, err)

	s = s.Back()

	assert.Equal(t, StepHospitalInfo, s.Step())
	_, err = s.Admin()
	assert.ErrorIs(t, err, ErrHospitalIDMissing)
}

func TestAdminStep_CompletedLoopsBack(t *testing.T) {
	s, err := State{}.HospitalCreated("abc123")
	require.NoError(t, err)
	admin, err := s.Admin()
	require.NoError(t, err)

	next := admin.Completed()

	assert.Equal(t, State{}, next)
	assert.Equal(t, StepHospitalInfo, next.Step())
}

func TestState_JSONRoundTrip(t *testing.T) {
	s, err := State{}.HospitalCreated("abc123")
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"step":"admin_info","hospital_id":"abc123"}`, string(data))

	var restored State
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, s, restored)
}

func TestState_UnmarshalAdminWithoutHospital(t *testing.T) {
	var s State
	require.NoError(t, json.Unmarshal([]byte(`{"step":"admin_info"}`), &s))

	assert.Equal(t, StepHospitalInfo, s.Step())
}
