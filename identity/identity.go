// Package identity defines the locally held representation of the
// authenticated user: canonical roles, their default permission tables, and
// derivation of a user from a raw access token payload.
package identity

import "strings"

// Role is a canonical role tag for an authenticated user.
type Role string

const (
	RoleAdmin      Role = "admin"      // Full administrative access
	RoleManager    Role = "manager"    // Manages fleet resources and team members
	RoleDispatcher Role = "dispatcher" // Plans routes and assigns drivers
	RoleDriver     Role = "driver"     // Lowest-privilege authenticated role
)

// Permissions is the fixed-shape capability record derived from a role.
// It is never stored independently of the role unless an administrator
// explicitly overrides it.
type Permissions struct {
	ManageUsers    bool `json:"manageUsers"`
	ManageVehicles bool `json:"manageVehicles"`
	ManageRoutes   bool `json:"manageRoutes"`
	ManageDrivers  bool `json:"manageDrivers"`
	AssignVehicles bool `json:"assignVehicles"`
	ViewReports    bool `json:"viewReports"`
	TrackVehicles  bool `json:"trackVehicles"`
}

// defaultPermissions is the static per-role capability table.
var defaultPermissions = map[Role]Permissions{
	RoleAdmin: {
		ManageUsers:    true,
		ManageVehicles: true,
		ManageRoutes:   true,
		ManageDrivers:  true,
		AssignVehicles: true,
		ViewReports:    true,
		TrackVehicles:  true,
	},
	RoleManager: {
		ManageVehicles: true,
		ManageRoutes:   true,
		ManageDrivers:  true,
		AssignVehicles: true,
		ViewReports:    true,
		TrackVehicles:  true,
	},
	RoleDispatcher: {
		ManageRoutes:   true,
		AssignVehicles: true,
		ViewReports:    true,
		TrackVehicles:  true,
	},
	RoleDriver: {
		TrackVehicles: true,
	},
}

// DefaultPermissions returns the static default table for a canonical role.
// Unknown roles get the driver defaults.
func DefaultPermissions(role Role) Permissions {
	if perms, ok := defaultPermissions[role]; ok {
		return perms
	}
	return defaultPermissions[RoleDriver]
}

// roleAliases maps role claim spellings from heterogeneous token issuers to
// canonical role tags.
var roleAliases = map[string]Role{
	"admin":         RoleAdmin,
	"administrator": RoleAdmin,
	"superadmin":    RoleAdmin,
	"super_admin":   RoleAdmin,
	"manager":       RoleManager,
	"fleetmanager":  RoleManager,
	"fleet_manager": RoleManager,
	"dispatcher":    RoleDispatcher,
	"logistics":     RoleDispatcher,
	"logistic":      RoleDispatcher,
	"driver":        RoleDriver,
}

// NormalizeRole maps a raw role claim to a canonical role tag. The second
// return value is false when the claim matches no known alias.
func NormalizeRole(claim string) (Role, bool) {
	role, ok := roleAliases[strings.ToLower(strings.TrimSpace(claim))]
	return role, ok
}

// SessionUser is the local representation of the authenticated identity,
// independent of the backend schema.
type SessionUser struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"displayName"`
	FamilyName  string      `json:"familyName"`
	Username    string      `json:"username"`
	Email       string      `json:"email,omitempty"`
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
	IsActive    *bool       `json:"isActive,omitempty"`
	DriverID    *string     `json:"driverId,omitempty"`
}
