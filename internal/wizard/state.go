// Package wizard implements the two-step hospital registration flow:
// register the hospital, then its administrator.
package wizard

import (
	"encoding/json"
	"errors"
)

// Step is a wizard state.
type Step string

// Steps.
const (
	StepHospitalInfo Step = "hospital_info"
	StepAdminInfo    Step = "admin_info"
)

// ErrHospitalIDMissing is returned when the administrator step is attempted
// without a registered hospital.
var ErrHospitalIDMissing = errors.New("hospital id is missing")

// State is the wizard position. The zero value is HospitalInfo with no
// hospital. Only HospitalCreated can move to AdminInfo, and it always
// carries the hospital identifier.
type State struct {
	step       Step
	hospitalID string
}

// Step returns the current step.
func (s State) Step() Step {
	if s.step == "" {
		return StepHospitalInfo
	}
	return s.step
}

// HospitalCreated moves to AdminInfo carrying id. Submitting the hospital
// step again from AdminInfo replaces the carried hospital.
func (s State) HospitalCreated(id string) (State, error) {
	if id == "" {
		return s, ErrHospitalIDMissing
	}
	return State{step: StepAdminInfo, hospitalID: id}, nil
}

// Admin returns the administrator step, which is the only way to submit an
// administrator.
func (s State) Admin() (AdminStep, error) {
	if s.Step() != StepAdminInfo || s.hospitalID == "" {
		return AdminStep{}, ErrHospitalIDMissing
	}
	return AdminStep{hospitalID: s.hospitalID}, nil
}

// Back returns to HospitalInfo and forgets the hospital.
func (s State) Back() State {
	return State{}
}

type stateJSON struct {
	Step       Step   `json:"step,omitempty"`
	HospitalID string `json:"hospital_id,omitempty"`
}

// MarshalJSON stores the state in a session record.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{Step: s.step, HospitalID: s.hospitalID})
}

// UnmarshalJSON restores a stored state. An AdminInfo record without a
// hospital decodes as HospitalInfo.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Step != StepAdminInfo || raw.HospitalID == "" {
		*s = State{}
		return nil
	}
	*s = State{step: StepAdminInfo, hospitalID: raw.HospitalID}
	return nil
}

// AdminStep proves the wizard is in AdminInfo with a hospital.
type AdminStep struct {
	hospitalID string
}

// HospitalID returns the hospital the administrator will be linked to.
func (a AdminStep) HospitalID() string {
	return a.hospitalID
}

// Completed returns the state after the administrator is registered: the
// wizard starts over for the next hospital.
func (a AdminStep) Completed() State {
	return State{}
}
