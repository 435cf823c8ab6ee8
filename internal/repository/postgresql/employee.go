package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dawamy/attendance-bot/internal/domain/employee"
	"github.com/dawamy/attendance-bot/internal/pkg/database"
)

type employeeRepository struct {
	db *database.DB
}

const employeeColumns = `id, platform_user_id, phone, full_name, age, position, department, hire_date, last_active, created_at`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.PlatformUserID, &emp.Phone, &emp.FullName,
		&emp.Age, &emp.Position, &emp.Department, &emp.HireDate,
		&emp.LastActive, &emp.CreatedAt,
	)
	return emp, err
}

// UpsertByPhone implements employee.EmployeeRepository.
func (r *employeeRepository) UpsertByPhone(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employees (platform_user_id, phone, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone) DO UPDATE
		SET platform_user_id = EXCLUDED.platform_user_id,
		    full_name = EXCLUDED.full_name,
		    last_active = now()
		RETURNING ` + employeeColumns

	saved, err := scanEmployee(q.QueryRow(ctx, query, emp.PlatformUserID, emp.Phone, emp.FullName))
	if err != nil {
		if isUniqueViolation(err) {
			// platform_user_id is already bound to another phone
			return employee.Employee{}, employee.ErrPhoneConflict
		}
		return employee.Employee{}, fmt.Errorf("failed to upsert employee: %w", err)
	}

	return saved, nil
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by ID: %w", err)
	}

	return emp, nil
}

// GetByPlatformID implements employee.EmployeeRepository.
func (r *employeeRepository) GetByPlatformID(ctx context.Context, platformUserID int64) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE platform_user_id = $1`

	emp, err := scanEmployee(q.QueryRow(ctx, query, platformUserID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by platform ID: %w", err)
	}

	return emp, nil
}

// GetByPhone implements employee.EmployeeRepository.
func (r *employeeRepository) GetByPhone(ctx context.Context, phone string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE phone = $1`

	emp, err := scanEmployee(q.QueryRow(ctx, query, phone))
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by phone: %w", err)
	}

	return emp, nil
}

// List implements employee.EmployeeRepository.
func (r *employeeRepository) List(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY full_name`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}

	return employees, rows.Err()
}

// UpdateField implements employee.EmployeeRepository. The field name is
// validated against the closed whitelist before it is interpolated.
func (r *employeeRepository) UpdateField(ctx context.Context, id string, field employee.EditableField, value string) error {
	if !field.Valid() {
		return employee.ErrInvalidField
	}

	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`UPDATE employees SET %s = $1 WHERE id = $2 RETURNING id`, field)

	var updatedID string
	if err := q.QueryRow(ctx, query, value, id).Scan(&updatedID); err != nil {
		if err == pgx.ErrNoRows {
			return employee.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to update employee field %s: %w", field, err)
	}

	return nil
}

// Delete implements employee.EmployeeRepository. Child rows cascade.
func (r *employeeRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}

	return nil
}

// TouchLastActive implements employee.EmployeeRepository.
func (r *employeeRepository) TouchLastActive(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `UPDATE employees SET last_active = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to touch last_active: %w", err)
	}

	return nil
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}
