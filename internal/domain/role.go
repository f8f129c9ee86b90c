package domain

import (
	"errors"
	"strings"
	"unicode"
)

// Role is the platform role a console user signs in with.
type Role string

// Roles known to the platform.
const (
	RoleAdmin                 Role = "Admin"
	RoleHospitalAdministrator Role = "HospitalAdministrator"
	RoleReceptionist          Role = "Receptionist"
	RoleDoctor                Role = "Doctor"
	RoleTriage                Role = "Triage"
	RoleLabTechnician         Role = "LabTechnician"
	RolePharmacist            Role = "Pharmacist"
)

// ErrUnknownRole is returned by ParseRole for strings outside the enumeration.
var ErrUnknownRole = errors.New("unknown role")

// Roles returns every role in the order the login form lists them.
func Roles() []Role {
	return []Role{
		RoleAdmin,
		RoleHospitalAdministrator,
		RoleReceptionist,
		RoleDoctor,
		RoleTriage,
		RoleLabTechnician,
		RolePharmacist,
	}
}

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", ErrUnknownRole
}

// Valid reports whether r is part of the enumeration.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Label splits the camel-cased role into words: "LabTechnician" -> "Lab Technician".
func (r Role) Label() string {
	var b strings.Builder
	for i, c := range string(r) {
		if i > 0 && unicode.IsUpper(c) {
			b.WriteByte(' ')
		}
		b.WriteRune(c)
	}
	return b.String()
}
