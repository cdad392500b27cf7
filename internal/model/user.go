package model

import (
	"fmt"
	"time"
)

// User represents an account that can authenticate and act on entries.
type User struct {
	ID           int64     `json:"id"`
	EmployeeID   string    `json:"employee_id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// User statuses. Inactive users cannot log in.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:   3,
		RoleManager: 2,
		RoleUser:    1,
	}
	return levels[role] >= levels[minimum] && levels[role] > 0 && levels[minimum] > 0
}

// ValidatePassword checks the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// Actor is the identity a caller asserts for a single operation. The core
// trusts it as given; authentication happens in the session layer.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// CanApprove reports whether the actor may decide on pending entries.
func (a Actor) CanApprove() bool {
	return RoleAtLeast(a.Role, RoleManager)
}
