package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dawamy/attendance-bot/internal/domain/admin"
	"github.com/dawamy/attendance-bot/internal/domain/employee"
	"github.com/dawamy/attendance-bot/internal/pkg/database"
	"github.com/dawamy/attendance-bot/internal/pkg/validator"
)

// Contact is the payload of a contact-share event.
type Contact struct {
	PlatformUserID int64
	SharedByUserID int64
	Phone          string
	FirstName      string
	LastName       string
}

type Service struct {
	tx database.TxRunner
	employee.EmployeeRepository
	employee.AllowlistRepository
	admin.AdminRepository
}

func NewService(
	tx database.TxRunner,
	employeeRepo employee.EmployeeRepository,
	allowlistRepo employee.AllowlistRepository,
	adminRepo admin.AdminRepository,
) *Service {
	return &Service{
		tx:                  tx,
		EmployeeRepository:  employeeRepo,
		AllowlistRepository: allowlistRepo,
		AdminRepository:     adminRepo,
	}
}

// Register binds a platform user to an employee row via the phone allowlist.
// A user may only share their own contact.
func (s *Service) Register(ctx context.Context, c Contact) (employee.Employee, error) {
	if c.SharedByUserID != c.PlatformUserID {
		return employee.Employee{}, employee.ErrForeignContact
	}

	phone, ok := validator.NormalizePhone(c.Phone)
	if !ok {
		return employee.Employee{}, employee.ErrInvalidPhone
	}

	allowed, err := s.AllowlistRepository.Contains(ctx, phone)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to check allowlist: %w", err)
	}
	if !allowed {
		return employee.Employee{}, employee.ErrNotAllowlisted
	}

	fullName := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	if fullName == "" {
		fullName = employee.DefaultFullName
	}

	var registered employee.Employee
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		registered, err = s.EmployeeRepository.UpsertByPhone(ctx, employee.Employee{
			PlatformUserID: &c.PlatformUserID,
			Phone:          phone,
			FullName:       fullName,
		})
		return err
	})
	if err != nil {
		return employee.Employee{}, err
	}

	return registered, nil
}

// Identify resolves a platform user ID to its bound employee. A phone that
// has been dropped from the allowlist stops authorising new actions here,
// while the employee row and its history stay untouched.
func (s *Service) Identify(ctx context.Context, platformUserID int64) (employee.Employee, error) {
	emp, err := s.EmployeeRepository.GetByPlatformID(ctx, platformUserID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, employee.ErrNotRegistered
		}
		return employee.Employee{}, fmt.Errorf("failed to identify user: %w", err)
	}

	allowed, err := s.AllowlistRepository.Contains(ctx, emp.Phone)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to check allowlist: %w", err)
	}
	if !allowed {
		return employee.Employee{}, employee.ErrNotAllowlisted
	}

	return emp, nil
}

// AdminFor returns the admin record for a platform user ID, if one exists.
func (s *Service) AdminFor(ctx context.Context, platformUserID int64) (admin.Admin, bool, error) {
	a, err := s.AdminRepository.GetByPlatformID(ctx, platformUserID)
	if err != nil {
		if errors.Is(err, admin.ErrAdminNotFound) {
			return admin.Admin{}, false, nil
		}
		return admin.Admin{}, false, fmt.Errorf("failed to look up admin: %w", err)
	}

	return a, true, nil
}

// PromoteAdmin grants approval rights to a platform user. Only super admins
// may manage the roster, and an existing super admin cannot be overwritten.
func (s *Service) PromoteAdmin(ctx context.Context, actorID, targetID int64, name string) (admin.Admin, error) {
	if err := s.requireSuperAdmin(ctx, actorID); err != nil {
		return admin.Admin{}, err
	}

	existing, err := s.AdminRepository.GetByPlatformID(ctx, targetID)
	if err != nil && !errors.Is(err, admin.ErrAdminNotFound) {
		return admin.Admin{}, fmt.Errorf("failed to look up admin: %w", err)
	}
	if err == nil && existing.IsSuperAdmin {
		return admin.Admin{}, admin.ErrSuperProtected
	}

	a := admin.Admin{
		PlatformUserID: targetID,
		Name:           name,
		CanApprove:     true,
		AddedBy:        &actorID,
	}
	if err := s.AdminRepository.Upsert(ctx, a); err != nil {
		return admin.Admin{}, fmt.Errorf("failed to promote admin: %w", err)
	}

	return a, nil
}

// DemoteAdmin removes a platform user from the admin roster. A super admin can
// only remove themselves, and the last super admin cannot be removed at all.
func (s *Service) DemoteAdmin(ctx context.Context, actorID, targetID int64) error {
	if err := s.requireSuperAdmin(ctx, actorID); err != nil {
		return err
	}

	target, err := s.AdminRepository.GetByPlatformID(ctx, targetID)
	if err != nil {
		return err
	}

	if target.IsSuperAdmin {
		if actorID != targetID {
			return admin.ErrSuperProtected
		}
		count, err := s.AdminRepository.CountSuperAdmins(ctx)
		if err != nil {
			return fmt.Errorf("failed to count super admins: %w", err)
		}
		if count <= 1 {
			return admin.ErrLastSuperAdmin
		}
	}

	return s.AdminRepository.Delete(ctx, targetID)
}

func (s *Service) requireSuperAdmin(ctx context.Context, actorID int64) error {
	actor, err := s.AdminRepository.GetByPlatformID(ctx, actorID)
	if err != nil {
		if errors.Is(err, admin.ErrAdminNotFound) {
			return admin.ErrForbidden
		}
		return fmt.Errorf("failed to look up admin: %w", err)
	}
	if !actor.IsSuperAdmin {
		return admin.ErrForbidden
	}
	return nil
}

// ReconcileBootstrap loads the startup super-admin IDs and allowlisted phones
// into their tables. Runs once at process start; changes require a restart.
func (s *Service) ReconcileBootstrap(ctx context.Context, superAdminIDs []int64, allowedPhones []string) error {
	for _, id := range superAdminIDs {
		a := admin.Admin{
			PlatformUserID: id,
			CanApprove:     true,
			IsSuperAdmin:   true,
		}
		if err := s.AdminRepository.Upsert(ctx, a); err != nil {
			return fmt.Errorf("failed to reconcile super admin %d: %w", id, err)
		}
	}

	for _, raw := range allowedPhones {
		phone, ok := validator.NormalizePhone(raw)
		if !ok {
			return fmt.Errorf("%w: %q", employee.ErrInvalidPhone, raw)
		}
		if err := s.AllowlistRepository.Add(ctx, phone); err != nil {
			return fmt.Errorf("failed to reconcile allowlisted phone: %w", err)
		}
	}

	return nil
}
