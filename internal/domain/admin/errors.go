package admin

import "errors"

var (
	ErrAdminNotFound  = errors.New("admin not found")
	ErrForbidden      = errors.New("admin right required for this action")
	ErrLastSuperAdmin = errors.New("cannot remove the last super admin")
	ErrSuperProtected = errors.New("only a super admin can remove a super admin")
)
