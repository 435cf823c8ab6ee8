package employee

import (
	"time"
)

type Employee struct {
	ID             string
	PlatformUserID *int64
	Phone          string
	FullName       string
	Age            *int
	Position       *string
	Department     *string
	HireDate       *time.Time
	LastActive     time.Time
	CreatedAt      time.Time
}

// EditableField names an employee column admins may change through the
// edit-details flow. Anything outside this whitelist is rejected.
type EditableField string

const (
	FieldFullName   EditableField = "full_name"
	FieldAge        EditableField = "age"
	FieldPosition   EditableField = "position"
	FieldDepartment EditableField = "department"
	FieldHireDate   EditableField = "hire_date"
)

var editableFields = map[EditableField]bool{
	FieldFullName:   true,
	FieldAge:        true,
	FieldPosition:   true,
	FieldDepartment: true,
	FieldHireDate:   true,
}

func (f EditableField) Valid() bool {
	return editableFields[f]
}

// DefaultFullName is stored when a shared contact carries no name at all.
const DefaultFullName = "New Employee"
