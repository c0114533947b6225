package identity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fleetwatch/go-fleet-client/identity"
)

func TestNormalizeRoleAliases(t *testing.T) {
	cases := map[string]identity.Role{
		"admin":         identity.RoleAdmin,
		"Administrator": identity.RoleAdmin,
		"SUPER_ADMIN":   identity.RoleAdmin,
		"manager":       identity.RoleManager,
		"Fleet_Manager": identity.RoleManager,
		"dispatcher":    identity.RoleDispatcher,
		"Logistics":     identity.RoleDispatcher,
		" driver ":      identity.RoleDriver,
	}

	for claim, expected := range cases {
		role, ok := identity.NormalizeRole(claim)
		require.True(t, ok, "claim %q", claim)
		require.Equal(t, expected, role, "claim %q", claim)
	}

	_, ok := identity.NormalizeRole("janitor")
	require.False(t, ok)
}

func TestDefaultPermissionsPerRole(t *testing.T) {
	admin := identity.DefaultPermissions(identity.RoleAdmin)
	require.True(t, admin.ManageUsers)
	require.True(t, admin.ManageVehicles)
	require.True(t, admin.ManageRoutes)
	require.True(t, admin.ManageDrivers)
	require.True(t, admin.AssignVehicles)
	require.True(t, admin.ViewReports)
	require.True(t, admin.TrackVehicles)

	manager := identity.DefaultPermissions(identity.RoleManager)
	require.False(t, manager.ManageUsers)
	require.True(t, manager.ManageVehicles)
	require.True(t, manager.ManageDrivers)

	dispatcher := identity.DefaultPermissions(identity.RoleDispatcher)
	require.False(t, dispatcher.ManageVehicles)
	require.True(t, dispatcher.ManageRoutes)
	require.True(t, dispatcher.AssignVehicles)

	driver := identity.DefaultPermissions(identity.RoleDriver)
	require.Equal(t, identity.Permissions{TrackVehicles: true}, driver)
}

func TestDefaultPermissionsUnknownRoleFallsBackToDriver(t *testing.T) {
	require.Equal(t,
		identity.DefaultPermissions(identity.RoleDriver),
		identity.DefaultPermissions(identity.Role("made-up")),
	)
}
