// Package auth holds the authenticated user shape and the permission gate
// that decides which departments may act on which processes.
package auth

import "errors"

// User is the authenticated caller, as resolved by the session layer.
type User struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	IsAdmin    bool   `json:"is_admin"`
}

// ErrUnauthenticated is returned when no authenticated user is present.
var ErrUnauthenticated = errors.New("authentication required")

// PermissionError reports a denied operation along with the department that
// would be allowed to perform it.
type PermissionError struct {
	Operation          string
	Process            string
	RequiredDepartment string
}

func (e *PermissionError) Error() string {
	if e.RequiredDepartment != "" {
		return "permission denied: " + e.Operation + " on " + e.Process +
			" requires department " + e.RequiredDepartment
	}
	return "permission denied: " + e.Operation
}
