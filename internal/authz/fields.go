package authz

import "github.com/peopleops/hrhub/internal/domain/user"

// managerEmployeeFields is everything admin/hr_manager may write on an
// employee row, including employment, compensation and status. Emergency
// contact details are not on this list: only the employee edits those, on
// their own record.
var managerEmployeeFields = []string{
	"employee_number", "id_number", "passport_number", "first_name", "last_name",
	"email", "phone", "mobile_phone", "start_date", "end_date", "birth_date",
	"address", "city", "postal_code", "department", "position",
	"manager_employee_id", "salary", "employment_type", "status", "notes",
}

// selfEmployeeFields is the narrower allow-list an employee may write on
// their own record: contact and emergency details only.
var selfEmployeeFields = []string{
	"phone", "mobile_phone", "address", "city", "postal_code",
	"emergency_contact_name", "emergency_contact_phone",
}

// EmployeeFieldAllowList returns the update allow-list for a role.
func EmployeeFieldAllowList(role string) []string {
	if role == user.RoleAdmin || role == user.RoleHRManager {
		return managerEmployeeFields
	}
	return selfEmployeeFields
}

// FilterEmployeeFields drops every field the role may not write. Disallowed
// fields are removed silently rather than rejected, so a self-service update
// that happens to include salary simply leaves salary untouched.
func FilterEmployeeFields(role string, fields map[string]any) map[string]any {
	allowed := EmployeeFieldAllowList(role)

	out := make(map[string]any, len(fields))

	for _, col := range allowed {
		if v, ok := fields[col]; ok {
			out[col] = v
		}
	}

	return out
}
