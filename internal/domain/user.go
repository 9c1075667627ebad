package domain

import (
	"github.com/spec-kit/care-session/pkg/util"
)

// Role differentiates the two dashboard personas. The set is closed:
// anything else must be rejected, never defaulted.
type Role string

const (
	RoleSocialWorker Role = "socialWorker"
	RoleCareWorker   Role = "careWorker"
)

// ParseRole validates a raw role value against the closed set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleSocialWorker:
		return RoleSocialWorker, nil
	case RoleCareWorker:
		return RoleCareWorker, nil
	default:
		return "", util.NewUnknownRole(raw)
	}
}

// User is the resolved identity behind a session.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
