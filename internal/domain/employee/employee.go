package employee

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	StatusActive     = "active"
	StatusTerminated = "terminated"
	StatusOnLeave    = "on_leave"
	StatusSuspended  = "suspended"
)

const (
	TypeFullTime   = "full_time"
	TypePartTime   = "part_time"
	TypeContractor = "contractor"
	TypeIntern     = "intern"
)

var (
	ErrNotFound = errors.New("employee not found")
	ErrConflict = errors.New("employee number or national id already in use")
)

type Employee struct {
	ID                    string     `json:"employeeId"`
	UserID                *string    `json:"userId,omitempty"`
	EmployeeNumber        string     `json:"employeeNumber"`
	IDNumber              string     `json:"idNumber"`
	PassportNumber        *string    `json:"passportNumber,omitempty"`
	FirstName             string     `json:"firstName"`
	LastName              string     `json:"lastName"`
	Email                 string     `json:"email"`
	Phone                 string     `json:"phone"`
	MobilePhone           *string    `json:"mobilePhone,omitempty"`
	StartDate             *time.Time `json:"startDate,omitempty"`
	EndDate               *time.Time `json:"endDate,omitempty"`
	BirthDate             *time.Time `json:"birthDate,omitempty"`
	Address               *string    `json:"address,omitempty"`
	City                  *string    `json:"city,omitempty"`
	PostalCode            *string    `json:"postalCode,omitempty"`
	EmergencyContactName  *string    `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone *string    `json:"emergencyContactPhone,omitempty"`
	Department            *string    `json:"department,omitempty"`
	Position              *string    `json:"position,omitempty"`
	ManagerEmployeeID     *string    `json:"managerEmployeeId,omitempty"`
	Salary                *float64   `json:"salary,omitempty"`
	EmploymentType        string     `json:"employmentType"`
	Status                string     `json:"status"`
	Notes                 *string    `json:"notes,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

type CreateEmployeeRequest struct {
	UserID                *string    `json:"userId" binding:"omitempty,uuid"`
	EmployeeNumber        string     `json:"employeeNumber" binding:"required,max=20"`
	IDNumber              string     `json:"idNumber" binding:"required,len=9,numeric"`
	PassportNumber        *string    `json:"passportNumber" binding:"omitempty,max=20"`
	FirstName             string     `json:"firstName" binding:"required,max=100"`
	LastName              string     `json:"lastName" binding:"required,max=100"`
	Email                 string     `json:"email" binding:"required,email"`
	Phone                 string     `json:"phone" binding:"required"`
	MobilePhone           *string    `json:"mobilePhone"`
	StartDate             *time.Time `json:"startDate"`
	BirthDate             *time.Time `json:"birthDate"`
	Address               *string    `json:"address"`
	City                  *string    `json:"city" binding:"omitempty,max=100"`
	PostalCode            *string    `json:"postalCode" binding:"omitempty,max=10"`
	EmergencyContactName  *string    `json:"emergencyContactName"`
	EmergencyContactPhone *string    `json:"emergencyContactPhone"`
	Department            *string    `json:"department" binding:"omitempty,max=100"`
	Position              *string    `json:"position" binding:"omitempty,max=100"`
	ManagerEmployeeID     *string    `json:"managerEmployeeId" binding:"omitempty,uuid"`
	Salary                *float64   `json:"salary" binding:"omitempty,min=0"`
	EmploymentType        string     `json:"employmentType" binding:"omitempty,oneof=full_time part_time contractor intern"`
	Notes                 *string    `json:"notes"`
}

// Update payload: every field optional. Which of these actually get applied
// depends on the caller's role, see authz.FilterEmployeeFields.
type UpdateEmployeeRequest struct {
	EmployeeNumber        *string    `json:"employeeNumber" binding:"omitempty,max=20"`
	IDNumber              *string    `json:"idNumber" binding:"omitempty,len=9,numeric"`
	PassportNumber        *string    `json:"passportNumber" binding:"omitempty,max=20"`
	FirstName             *string    `json:"firstName" binding:"omitempty,max=100"`
	LastName              *string    `json:"lastName" binding:"omitempty,max=100"`
	Email                 *string    `json:"email" binding:"omitempty,email"`
	Phone                 *string    `json:"phone"`
	MobilePhone           *string    `json:"mobilePhone"`
	StartDate             *time.Time `json:"startDate"`
	EndDate               *time.Time `json:"endDate"`
	BirthDate             *time.Time `json:"birthDate"`
	Address               *string    `json:"address"`
	City                  *string    `json:"city" binding:"omitempty,max=100"`
	PostalCode            *string    `json:"postalCode" binding:"omitempty,max=10"`
	EmergencyContactName  *string    `json:"emergencyContactName"`
	EmergencyContactPhone *string    `json:"emergencyContactPhone"`
	Department            *string    `json:"department" binding:"omitempty,max=100"`
	Position              *string    `json:"position" binding:"omitempty,max=100"`
	ManagerEmployeeID     *string    `json:"managerEmployeeId" binding:"omitempty,uuid"`
	Salary                *float64   `json:"salary" binding:"omitempty,min=0"`
	EmploymentType        *string    `json:"employmentType" binding:"omitempty,oneof=full_time part_time contractor intern"`
	Status                *string    `json:"status" binding:"omitempty,oneof=active terminated on_leave suspended"`
	Notes                 *string    `json:"notes"`
}

// Fields flattens the payload into column name -> value for the fields the
// caller actually sent. Keys match the employees table columns.
func (r UpdateEmployeeRequest) Fields() map[string]any {
	out := map[string]any{}

	put := func(col string, v any, set bool) {
		if set {
			out[col] = v
		}
	}

	put("employee_number", deref(r.EmployeeNumber), r.EmployeeNumber != nil)
	put("id_number", deref(r.IDNumber), r.IDNumber != nil)
	put("passport_number", deref(r.PassportNumber), r.PassportNumber != nil)
	put("first_name", deref(r.FirstName), r.FirstName != nil)
	put("last_name", deref(r.LastName), r.LastName != nil)
	put("email", deref(r.Email), r.Email != nil)
	put("phone", deref(r.Phone), r.Phone != nil)
	put("mobile_phone", deref(r.MobilePhone), r.MobilePhone != nil)
	if r.StartDate != nil {
		out["start_date"] = *r.StartDate
	}
	if r.EndDate != nil {
		out["end_date"] = *r.EndDate
	}
	if r.BirthDate != nil {
		out["birth_date"] = *r.BirthDate
	}
	put("address", deref(r.Address), r.Address != nil)
	put("city", deref(r.City), r.City != nil)
	put("postal_code", deref(r.PostalCode), r.PostalCode != nil)
	put("emergency_contact_name", deref(r.EmergencyContactName), r.EmergencyContactName != nil)
	put("emergency_contact_phone", deref(r.EmergencyContactPhone), r.EmergencyContactPhone != nil)
	put("department", deref(r.Department), r.Department != nil)
	put("position", deref(r.Position), r.Position != nil)
	put("manager_employee_id", deref(r.ManagerEmployeeID), r.ManagerEmployeeID != nil)
	if r.Salary != nil {
		out["salary"] = *r.Salary
	}
	put("employment_type", deref(r.EmploymentType), r.EmploymentType != nil)
	put("status", deref(r.Status), r.Status != nil)
	put("notes", deref(r.Notes), r.Notes != nil)

	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// with pointers if optional, it will be nil
type ListEmployeesFilter struct {
	Department     *string
	Status         *string
	EmploymentType *string
	Limit          int
	Offset         int
}

var phonePattern = regexp.MustCompile(`^0\d{1,2}-?\d{7}$`)

// ValidPhone checks the local phone format (0X-XXXXXXX or 0XX-XXXXXXX),
// ignoring whitespace.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.ReplaceAll(phone, " ", ""))
}
