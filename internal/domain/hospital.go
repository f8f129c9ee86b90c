package domain

// Gender values accepted for an administrator.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// HospitalDraft is the unsaved hospital registration form.
type HospitalDraft struct {
	Name          string `json:"name" validate:"required"`
	Location      string `json:"location" validate:"required"`
	ContactNumber string `json:"contactNumber" validate:"required,min=10,et_phone"`
	LicenseNumber string `json:"licenseNumber" validate:"required"`
	LicenseImage  string `json:"licenseImage" validate:"required"`
}

// AdminDraft is the unsaved hospital administrator form.
// Role is always RoleHospitalAdministrator.
type AdminDraft struct {
	Role        Role   `json:"role" validate:"required,eq=HospitalAdministrator"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"required,oneof=Male Female Other"`
}

// NewAdminDraft returns an empty administrator form with the role preset.
func NewAdminDraft() AdminDraft {
	return AdminDraft{Role: RoleHospitalAdministrator}
}

// Genders lists the gender options in display order.
func Genders() []string {
	return []string{GenderMale, GenderFemale, GenderOther}
}
