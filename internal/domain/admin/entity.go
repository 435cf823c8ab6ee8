package admin

import "time"

// Admin is identified by its chat platform user ID. Admins live in a separate
// namespace from the employee phone allowlist and the two are never merged.
type Admin struct {
	PlatformUserID int64
	Name           string
	CanApprove     bool
	IsSuperAdmin   bool
	AddedBy        *int64
	AddedAt        time.Time
}
