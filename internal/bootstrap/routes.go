package bootstrap

import (
	"github.com/spec-kit/care-session/internal/domain"
	"github.com/spec-kit/care-session/pkg/util"
)

// Entry surfaces the core can route to.
const (
	RouteLogin                 = "/login"
	RouteSocialWorkerDashboard = "/dashboard/social-worker"
	RouteCareWorkerDashboard   = "/dashboard/care-worker"
)

// RouteFor maps a role to its dashboard. Pure; unknown roles are a hard
// error, never a default dashboard.
func RouteFor(role domain.Role) (string, error) {
	switch role {
	case domain.RoleSocialWorker:
		return RouteSocialWorkerDashboard, nil
	case domain.RoleCareWorker:
		return RouteCareWorkerDashboard, nil
	default:
		return "", util.NewUnknownRole(string(role))
	}
}
