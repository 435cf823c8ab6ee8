package registration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawamy/attendance-bot/internal/domain/admin"
	"github.com/dawamy/attendance-bot/internal/domain/employee"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeEmployeeRepo struct {
	byPhone map[string]employee.Employee
	seq     int
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{byPhone: make(map[string]employee.Employee)}
}

func (r *fakeEmployeeRepo) UpsertByPhone(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	if existing, ok := r.byPhone[emp.Phone]; ok {
		existing.PlatformUserID = emp.PlatformUserID
		existing.FullName = emp.FullName
		r.byPhone[emp.Phone] = existing
		return existing, nil
	}
	r.seq++
	emp.ID = fmt.Sprintf("emp-%d", r.seq)
	r.byPhone[emp.Phone] = emp
	return emp, nil
}

func (r *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	for _, emp := range r.byPhone {
		if emp.ID == id {
			return emp, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) GetByPlatformID(ctx context.Context, platformUserID int64) (employee.Employee, error) {
	for _, emp := range r.byPhone {
		if emp.PlatformUserID != nil && *emp.PlatformUserID == platformUserID {
			return emp, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) GetByPhone(ctx context.Context, phone string) (employee.Employee, error) {
	emp, ok := r.byPhone[phone]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (r *fakeEmployeeRepo) List(ctx context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, emp := range r.byPhone {
		out = append(out, emp)
	}
	return out, nil
}

func (r *fakeEmployeeRepo) UpdateField(ctx context.Context, id string, field employee.EditableField, value string) error {
	return nil
}

func (r *fakeEmployeeRepo) Delete(ctx context.Context, id string) error {
	for phone, emp := range r.byPhone {
		if emp.ID == id {
			delete(r.byPhone, phone)
			return nil
		}
	}
	return employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) TouchLastActive(ctx context.Context, id string) error {
	return nil
}

type fakeAllowlistRepo struct {
	phones map[string]bool
}

func newFakeAllowlistRepo(phones ...string) *fakeAllowlistRepo {
	r := &fakeAllowlistRepo{phones: make(map[string]bool)}
	for _, p := range phones {
		r.phones[p] = true
	}
	return r
}

func (r *fakeAllowlistRepo) Contains(ctx context.Context, phone string) (bool, error) {
	return r.phones[phone], nil
}

func (r *fakeAllowlistRepo) Add(ctx context.Context, phone string) error {
	r.phones[phone] = true
	return nil
}

func (r *fakeAllowlistRepo) Remove(ctx context.Context, phone string) error {
	delete(r.phones, phone)
	return nil
}

func (r *fakeAllowlistRepo) List(ctx context.Context) ([]string, error) {
	var out []string
	for p := range r.phones {
		out = append(out, p)
	}
	return out, nil
}

type fakeAdminRepo struct {
	byID map[int64]admin.Admin
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{byID: make(map[int64]admin.Admin)}
}

func (r *fakeAdminRepo) GetByPlatformID(ctx context.Context, platformUserID int64) (admin.Admin, error) {
	a, ok := r.byID[platformUserID]
	if !ok {
		return admin.Admin{}, admin.ErrAdminNotFound
	}
	return a, nil
}

func (r *fakeAdminRepo) Upsert(ctx context.Context, a admin.Admin) error {
	r.byID[a.PlatformUserID] = a
	return nil
}

func (r *fakeAdminRepo) List(ctx context.Context) ([]admin.Admin, error) {
	var out []admin.Admin
	for _, a := range r.byID {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAdminRepo) CountSuperAdmins(ctx context.Context) (int, error) {
	count := 0
	for _, a := range r.byID {
		if a.IsSuperAdmin {
			count++
		}
	}
	return count, nil
}

func (r *fakeAdminRepo) Delete(ctx context.Context, platformUserID int64) error {
	delete(r.byID, platformUserID)
	return nil
}

func newTestService(allowedPhones ...string) (*Service, *fakeEmployeeRepo, *fakeAdminRepo) {
	employeeRepo := newFakeEmployeeRepo()
	adminRepo := newFakeAdminRepo()
	svc := NewService(fakeTxRunner{}, employeeRepo, newFakeAllowlistRepo(allowedPhones...), adminRepo)
	return svc, employeeRepo, adminRepo
}

func TestRegisterBindsPlatformUser(t *testing.T) {
	svc, _, _ := newTestService("+962786644106")

	emp, err := svc.Register(context.Background(), Contact{
		PlatformUserID: 42,
		SharedByUserID: 42,
		Phone:          "+962 78-664-4106",
		FirstName:      "Omar",
		LastName:       "Haddad",
	})
	require.NoError(t, err)
	assert.Equal(t, "+962786644106", emp.Phone)
	assert.Equal(t, "Omar Haddad", emp.FullName)
	require.NotNil(t, emp.PlatformUserID)
	assert.Equal(t, int64(42), *emp.PlatformUserID)
}

func TestRegisterRejectsForeignContact(t *testing.T) {
	svc, _, _ := newTestService("+962786644106")

	_, err := svc.Register(context.Background(), Contact{
		PlatformUserID: 7,
		SharedByUserID: 42,
		Phone:          "+962786644106",
	})
	assert.ErrorIs(t, err, employee.ErrForeignContact)
}

func TestRegisterRejectsUnlistedPhone(t *testing.T) {
	svc, employeeRepo, _ := newTestService("+962786644106")

	_, err := svc.Register(context.Background(), Contact{
		PlatformUserID: 42,
		SharedByUserID: 42,
		Phone:          "+962790000000",
	})
	assert.ErrorIs(t, err, employee.ErrNotAllowlisted)

	// No row may be left behind for a refused registration.
	assert.Empty(t, employeeRepo.byPhone)
}

func TestRegisterDefaultsEmptyName(t *testing.T) {
	svc, _, _ := newTestService("+962786644106")

	emp, err := svc.Register(context.Background(), Contact{
		PlatformUserID: 42,
		SharedByUserID: 42,
		Phone:          "+962786644106",
	})
	require.NoError(t, err)
	assert.Equal(t, employee.DefaultFullName, emp.FullName)
}

func TestRegisterRebindsOnNewDevice(t *testing.T) {
	svc, _, _ := newTestService("+962786644106")
	ctx := context.Background()

	contact := Contact{PlatformUserID: 42, SharedByUserID: 42, Phone: "+962786644106", FirstName: "Omar"}
	first, err := svc.Register(ctx, contact)
	require.NoError(t, err)

	contact.PlatformUserID = 99
	contact.SharedByUserID = 99
	second, err := svc.Register(ctx, contact)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(99), *second.PlatformUserID)
}

func TestIdentifyRevokedPhone(t *testing.T) {
	svc, employeeRepo, _ := newTestService("+962786644106")
	ctx := context.Background()

	emp, err := svc.Register(ctx, Contact{PlatformUserID: 42, SharedByUserID: 42, Phone: "+962786644106", FirstName: "Omar"})
	require.NoError(t, err)

	require.NoError(t, svc.AllowlistRepository.Remove(ctx, "+962786644106"))

	_, err = svc.Identify(ctx, 42)
	assert.ErrorIs(t, err, employee.ErrNotAllowlisted)

	// The employee row and its history stay behind the revoked phone.
	kept, err := employeeRepo.GetByID(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, "+962786644106", kept.Phone)
}

func TestIdentifyUnknownUser(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Identify(context.Background(), 42)
	assert.ErrorIs(t, err, employee.ErrNotRegistered)
}

func TestAdminFor(t *testing.T) {
	svc, _, adminRepo := newTestService()
	ctx := context.Background()

	require.NoError(t, adminRepo.Upsert(ctx, admin.Admin{PlatformUserID: 7, CanApprove: true}))

	a, ok, err := svc.AdminFor(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, a.CanApprove)

	_, ok, err = svc.AdminFor(ctx, 8)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPromoteAdmin(t *testing.T) {
	svc, _, adminRepo := newTestService()
	ctx := context.Background()

	adminRepo.byID[1] = admin.Admin{PlatformUserID: 1, CanApprove: true, IsSuperAdmin: true}
	adminRepo.byID[2] = admin.Admin{PlatformUserID: 2, CanApprove: true}

	// Regular admins and outsiders cannot manage the roster.
	_, err := svc.PromoteAdmin(ctx, 2, 50, "")
	assert.ErrorIs(t, err, admin.ErrForbidden)
	_, err = svc.PromoteAdmin(ctx, 99, 50, "")
	assert.ErrorIs(t, err, admin.ErrForbidden)

	a, err := svc.PromoteAdmin(ctx, 1, 50, "Lina")
	require.NoError(t, err)
	assert.True(t, a.CanApprove)
	assert.False(t, a.IsSuperAdmin)
	require.NotNil(t, a.AddedBy)
	assert.Equal(t, int64(1), *a.AddedBy)

	// A super admin record cannot be flattened by a promote.
	_, err = svc.PromoteAdmin(ctx, 1, 1, "")
	assert.ErrorIs(t, err, admin.ErrSuperProtected)
}

func TestDemoteAdmin(t *testing.T) {
	svc, _, adminRepo := newTestService()
	ctx := context.Background()

	adminRepo.byID[1] = admin.Admin{PlatformUserID: 1, CanApprove: true, IsSuperAdmin: true}
	adminRepo.byID[2] = admin.Admin{PlatformUserID: 2, CanApprove: true, IsSuperAdmin: true}
	adminRepo.byID[3] = admin.Admin{PlatformUserID: 3, CanApprove: true}

	err := svc.DemoteAdmin(ctx, 1, 3)
	require.NoError(t, err)
	_, ok := adminRepo.byID[3]
	assert.False(t, ok)

	// Supers cannot remove each other, only themselves.
	err = svc.DemoteAdmin(ctx, 1, 2)
	assert.ErrorIs(t, err, admin.ErrSuperProtected)

	err = svc.DemoteAdmin(ctx, 2, 2)
	require.NoError(t, err)

	// The last super admin stays.
	err = svc.DemoteAdmin(ctx, 1, 1)
	assert.ErrorIs(t, err, admin.ErrLastSuperAdmin)
}

func TestReconcileBootstrap(t *testing.T) {
	svc, _, adminRepo := newTestService()
	ctx := context.Background()

	err := svc.ReconcileBootstrap(ctx, []int64{1, 2}, []string{"+962786644106", "962 79 000 0000"})
	require.NoError(t, err)

	count, err := adminRepo.CountSuperAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	allowed, err := svc.AllowlistRepository.Contains(ctx, "+962790000000")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestReconcileBootstrapRejectsBadPhone(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.ReconcileBootstrap(context.Background(), nil, []string{"not-a-phone"})
	assert.ErrorIs(t, err, employee.ErrInvalidPhone)
}
