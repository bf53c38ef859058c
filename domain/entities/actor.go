package entities

import "slices"

// Role is the coarse permission level supplied by the auth gateway
type Role string

const (
	RoleStudent Role = "student"
	RoleMonitor Role = "monitor"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Special-role tags (cargos)
const (
	CargoRepresentative   = "representative"
	CargoCollectiveExempt = "collective_exempt"
)

// Actor is the already-authenticated caller of an operation
type Actor struct {
	AccountID     int64
	Role          Role
	Turma         string
	Cargos        []string
	Blocked       bool
	OriginAddress string
}

// HasCargo reports whether the actor carries the given special-role tag
func (a Actor) HasCargo(cargo string) bool {
	return slices.Contains(a.Cargos, cargo)
}

// IsAdmin reports whether the actor has the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsStaff reports whether the actor may validate tickets
func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}

// CanBuyCollectively reports whether the actor may start a collective purchase
func (a Actor) CanBuyCollectively() bool {
	return a.IsAdmin() || a.HasCargo(CargoRepresentative)
}
