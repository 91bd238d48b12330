package authz_test

import (
	"testing"

	"github.com/peopleops/hrhub/internal/authz"
	"github.com/peopleops/hrhub/internal/domain/user"
)

func actor(role string) authz.Actor {
	return authz.Actor{UserID: "actor-1", Role: role, EmployeeID: "emp-1"}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name        string
		actor       authz.Actor
		action      authz.Action
		resource    authz.Resource
		owner       string
		wantAllowed bool
		wantOwnOnly bool
		wantReason  authz.Reason
	}{
		{
			name:       "unauthenticated actor is rejected",
			actor:      authz.Actor{},
			action:     authz.ActionList,
			resource:   authz.ResourceEmployees,
			wantReason: authz.ReasonUnauthenticated,
		},
		{
			name:       "unknown role is rejected",
			actor:      authz.Actor{UserID: "actor-1", Role: "superuser"},
			action:     authz.ActionList,
			resource:   authz.ResourceEmployees,
			wantReason: authz.ReasonUnauthenticated,
		},

		// users

		{
			name:        "admin lists users",
			actor:       actor(user.RoleAdmin),
			action:      authz.ActionList,
			resource:    authz.ResourceUsers,
			wantAllowed: true,
		},
		{
			name:       "hr manager cannot list users",
			actor:      actor(user.RoleHRManager),
			action:     authz.ActionList,
			resource:   authz.ResourceUsers,
			wantReason: authz.ReasonForbiddenRole,
		},
		{
			name:        "employee updates own account",
			actor:       actor(user.RoleEmployee),
			action:      authz.ActionUpdate,
			resource:    authz.ResourceUsers,
			owner:       "actor-1",
			wantAllowed: true,
		},
		{
			name:       "employee cannot update another account",
			actor:      actor(user.RoleEmployee),
			action:     authz.ActionUpdate,
			resource:   authz.ResourceUsers,
			owner:      "someone-else",
			wantReason: authz.ReasonForbiddenOwnership,
		},
		{
			name:        "admin deletes another user",
			actor:       actor(user.RoleAdmin),
			action:      authz.ActionDelete,
			resource:    authz.ResourceUsers,
			owner:       "someone-else",
			wantAllowed: true,
		},
		{
			name:       "admin cannot delete own account",
			actor:      actor(user.RoleAdmin),
			action:     authz.ActionDelete,
			resource:   authz.ResourceUsers,
			owner:      "actor-1",
			wantReason: authz.ReasonForbiddenSelf,
		},
		{
			name:       "hr manager cannot delete users",
			actor:      actor(user.RoleHRManager),
			action:     authz.ActionDelete,
			resource:   authz.ResourceUsers,
			owner:      "someone-else",
			wantReason: authz.ReasonForbiddenRole,
		},

		// employees

		{
			name:        "hr manager lists all employees",
			actor:       actor(user.RoleHRManager),
			action:      authz.ActionList,
			resource:    authz.ResourceEmployees,
			wantAllowed: true,
		},
		{
			name:        "employee list is own-only",
			actor:       actor(user.RoleEmployee),
			action:      authz.ActionList,
			resource:    authz.ResourceEmployees,
			wantAllowed: true,
			wantOwnOnly: true,
		},
		{
			name:        "employee reads own record",
			actor:       actor(user.RoleEmployee),
			action:      authz.ActionRead,
			resource:    authz.ResourceEmployees,
			owner:       "actor-1",
			wantAllowed: true,
		},
		{
			name:       "employee cannot read someone else",
			actor:      actor(user.RoleEmployee),
			action:     authz.ActionRead,
			resource:   authz.ResourceEmployees,
			owner:      "someone-else",
			wantReason: authz.ReasonForbiddenOwnership,
		},
		{
			name:       "employee cannot create employees",
			actor:      actor(user.RoleEmployee),
			action:     authz.ActionCreate,
			resource:   authz.ResourceEmployees,
			wantReason: authz.ReasonForbiddenRole,
		},
		{
			name:        "hr manager terminates employees",
			actor:       actor(user.RoleHRManager),
			action:      authz.ActionDelete,
			resource:    authz.ResourceEmployees,
			wantAllowed: true,
		},

		// documents

		{
			name:        "employee document list is own-only",
			actor:       actor(user.RoleEmployee),
			action:      authz.ActionList,
			resource:    authz.ResourceDocuments,
			wantAllowed: true,
			wantOwnOnly: true,
		},
		{
			name:        "anyone may upload documents",
			actor:       actor(user.RoleEmployee),
			action:      authz.ActionCreate,
			resource:    authz.ResourceDocuments,
			wantAllowed: true,
		},
		{
			name:        "employee updates own document",
			actor:       actor(user.RoleEmployee),
			action:      authz.ActionUpdate,
			resource:    authz.ResourceDocuments,
			owner:       "actor-1",
			wantAllowed: true,
		},
		{
			name:       "employee cannot delete another employee's document",
			actor:      actor(user.RoleEmployee),
			action:     authz.ActionDelete,
			resource:   authz.ResourceDocuments,
			owner:      "someone-else",
			wantReason: authz.ReasonForbiddenOwnership,
		},
		{
			name:        "employee archives an unattached document",
			actor:       actor(user.RoleEmployee),
			action:      authz.ActionDelete,
			resource:    authz.ResourceDocuments,
			wantAllowed: true,
		},
		{
			name:       "employee without a linked record cannot delete documents",
			actor:      authz.Actor{UserID: "actor-1", Role: user.RoleEmployee},
			action:     authz.ActionDelete,
			resource:   authz.ResourceDocuments,
			wantReason: authz.ReasonForbiddenOwnership,
		},
		{
			name:        "hr manager deletes any document",
			actor:       actor(user.RoleHRManager),
			action:      authz.ActionDelete,
			resource:    authz.ResourceDocuments,
			owner:       "someone-else",
			wantAllowed: true,
		},

		// reports

		{
			name:        "hr manager runs canned reports",
			actor:       actor(user.RoleHRManager),
			action:      authz.ActionReport,
			resource:    authz.ResourceReports,
			wantAllowed: true,
		},
		{
			name:       "employee cannot run reports",
			actor:      actor(user.RoleEmployee),
			action:     authz.ActionReport,
			resource:   authz.ResourceReports,
			wantReason: authz.ReasonForbiddenRole,
		},
		{
			name:        "admin runs ad-hoc queries",
			actor:       actor(user.RoleAdmin),
			action:      authz.ActionQuery,
			resource:    authz.ResourceReports,
			wantAllowed: true,
		},
		{
			name:       "hr manager cannot run ad-hoc queries",
			actor:      actor(user.RoleHRManager),
			action:     authz.ActionQuery,
			resource:   authz.ResourceReports,
			wantReason: authz.ReasonForbiddenRole,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := authz.Decide(tc.actor, tc.action, tc.resource, tc.owner)

			if d.Allowed != tc.wantAllowed {
				t.Fatalf("Allowed = %v, want %v (reason %q)", d.Allowed, tc.wantAllowed, d.Reason)
			}

			if d.OwnOnly != tc.wantOwnOnly {
				t.Fatalf("OwnOnly = %v, want %v", d.OwnOnly, tc.wantOwnOnly)
			}

			if !tc.wantAllowed && d.Reason != tc.wantReason {
				t.Fatalf("Reason = %q, want %q", d.Reason, tc.wantReason)
			}
		})
	}
}

func TestFilterEmployeeFields(t *testing.T) {
	fields := map[string]any{
		"phone":      "03-1234567",
		"address":    "Main St 1",
		"salary":     99999.0,
		"status":     "terminated",
		"department": "engineering",
	}

	filtered := authz.FilterEmployeeFields(user.RoleEmployee, fields)

	if _, ok := filtered["salary"]; ok {
		t.Fatal("employee must not be able to set salary")
	}
	if _, ok := filtered["status"]; ok {
		t.Fatal("employee must not be able to set status")
	}
	if _, ok := filtered["department"]; ok {
		t.Fatal("employee must not be able to set department")
	}

	if filtered["phone"] != "03-1234567" || filtered["address"] != "Main St 1" {
		t.Fatalf("contact fields should survive: %v", filtered)
	}

	managerFiltered := authz.FilterEmployeeFields(user.RoleHRManager, fields)

	if len(managerFiltered) != len(fields) {
		t.Fatalf("manager should keep all fields, got %v", managerFiltered)
	}
}

func TestFilterEmployeeFieldsEmergencyContactIsSelfOnly(t *testing.T) {
	fields := map[string]any{
		"emergency_contact_name":  "Dana",
		"emergency_contact_phone": "050-1234567",
		"department":              "engineering",
	}

	for _, role := range []string{user.RoleAdmin, user.RoleHRManager} {
		filtered := authz.FilterEmployeeFields(role, fields)

		if _, ok := filtered["emergency_contact_name"]; ok {
			t.Fatalf("%s must not set emergency_contact_name", role)
		}
		if _, ok := filtered["emergency_contact_phone"]; ok {
			t.Fatalf("%s must not set emergency_contact_phone", role)
		}
		if filtered["department"] != "engineering" {
			t.Fatalf("%s should keep department: %v", role, filtered)
		}
	}

	selfFiltered := authz.FilterEmployeeFields(user.RoleEmployee, fields)

	if selfFiltered["emergency_contact_name"] != "Dana" || selfFiltered["emergency_contact_phone"] != "050-1234567" {
		t.Fatalf("employee should keep emergency contact fields: %v", selfFiltered)
	}
}

func TestIsReadOnlyQuery(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT * FROM employees", true},
		{"  select count(*) from users  ", true},
		{"select\n1", true},
		{"SELECT(1)", true},
		{"DROP TABLE users", false},
		{"DELETE FROM employees", false},
		{"UPDATE users SET role = 'admin'", false},
		{"selectx from users", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := authz.IsReadOnlyQuery(tc.query); got != tc.want {
			t.Errorf("IsReadOnlyQuery(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}
