// Package permissions maps station roles to permission sets and checks
// required permissions with wildcard support:
//   - "*" grants everything
//   - "shifts.*" grants every action on shifts
//   - "shifts.approve" grants exactly that action
package permissions

import (
	"strings"

	"github.com/fuelshift/fuelshift-backend/pkg/actor"
)

// Permissions checked by the HTTP layer
const (
	ShiftsSubmit  = "shifts.submit"
	ShiftsReadOwn = "shifts.read_own"
	ShiftsReview  = "shifts.review"
	ShiftsApprove = "shifts.approve"
	ShiftsReadAll = "shifts.read_all"
	DraftsManage  = "drafts.manage"

	PumpsRead    = "pumps.read"
	PumpsManage  = "pumps.manage"
	PricesRead   = "prices.read"
	PricesManage = "prices.manage"

	UsersManage = "users.manage"

	AlertsRead   = "alerts.read"
	AlertsCreate = "alerts.create"

	ReportsRead   = "reports.read"
	ReportsExport = "reports.export"
)

var rolePermissions = map[actor.Role][]string{
	actor.RoleAttendant: {
		ShiftsSubmit, ShiftsReadOwn, DraftsManage,
		PumpsRead, PricesRead, AlertsRead,
	},
	actor.RoleSupervisor: {
		ShiftsReadOwn, ShiftsReview, ShiftsApprove,
		PumpsRead, PricesRead, AlertsRead,
	},
	// Managers oversee every area but never enter shifts themselves.
	actor.RoleManager: {
		ShiftsReadOwn, ShiftsReview, ShiftsApprove, ShiftsReadAll,
		"pumps.*", "prices.*", "alerts.*", "reports.*",
		UsersManage,
	},
}

// ForRole returns the permissions granted to role
func ForRole(role actor.Role) []string {
	return rolePermissions[role]
}

// Allowed reports whether role grants the required permission
func Allowed(role actor.Role, required string) bool {
	return HasPermission(ForRole(role), required)
}

// HasPermission checks if perms include the required permission
func HasPermission(perms []string, required string) bool {
	if required == "" {
		return true
	}

	for _, p := range perms {
		if p == "*" || p == required {
			return true
		}
		if prefix, ok := strings.CutSuffix(p, ".*"); ok && strings.HasPrefix(required, prefix+".") {
			return true
		}
	}
	return false
}

// HasAnyPermission checks if perms include any of the required permissions
func HasAnyPermission(perms []string, required ...string) bool {
	for _, req := range required {
		if HasPermission(perms, req) {
			return true
		}
	}
	return false
}
