package authz

import "github.com/peopleops/hrhub/internal/domain/user"

type Action string

const (
	ActionList   Action = "list"
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionReport Action = "report"
	ActionQuery  Action = "query"
)

type Resource string

const (
	ResourceUsers     Resource = "users"
	ResourceEmployees Resource = "employees"
	ResourceDocuments Resource = "documents"
	ResourceReports   Resource = "reports"
)

// Deny reasons are part of the API error contract, keep them stable.
type Reason string

const (
	ReasonUnauthenticated    Reason = "unauthenticated"
	ReasonForbiddenRole      Reason = "forbidden-role"
	ReasonForbiddenOwnership Reason = "forbidden-ownership"
	ReasonForbiddenSelf      Reason = "forbidden-self"
)

// Actor is the authenticated identity making the request. EmployeeID is
// empty for users without a linked employee record.
type Actor struct {
	UserID     string
	Role       string
	EmployeeID string
}

type Decision struct {
	Allowed bool
	// OwnOnly means allow, but restrict visibility/effect to rows owned by
	// the actor (allow-with-filter).
	OwnOnly bool
	Reason  Reason
}

func allow() Decision           { return Decision{Allowed: true} }
func allowOwn() Decision        { return Decision{Allowed: true, OwnOnly: true} }
func deny(r Reason) Decision    { return Decision{Reason: r} }
func (d Decision) Deny() bool   { return !d.Allowed }
func (a Actor) manager() bool   { return a.Role == user.RoleAdmin || a.Role == user.RoleHRManager }
func (a Actor) owns(id string) bool {
	return id != "" && id == a.UserID
}

// Decide is the single authorization decision point for every resource
// endpoint. ownerUserID identifies the user that owns the targeted row;
// pass "" for collection-level actions where ownership does not apply.
//
// The role hierarchy is not linear: admin and hr_manager share most
// privileges, employee is strictly weaker, and a few actions are admin-only.
func Decide(actor Actor, action Action, resource Resource, ownerUserID string) Decision {
	if actor.UserID == "" || !user.ValidRole(actor.Role) {
		return deny(ReasonUnauthenticated)
	}

	switch resource {
	case ResourceUsers:
		return decideUsers(actor, action, ownerUserID)
	case ResourceEmployees:
		return decideEmployees(actor, action, ownerUserID)
	case ResourceDocuments:
		return decideDocuments(actor, action, ownerUserID)
	case ResourceReports:
		return decideReports(actor, action)
	}

	return deny(ReasonForbiddenRole)
}

func decideUsers(actor Actor, action Action, ownerUserID string) Decision {
	switch action {
	case ActionList, ActionRead, ActionCreate:
		if actor.Role != user.RoleAdmin {
			return deny(ReasonForbiddenRole)
		}
		return allow()

	case ActionUpdate:
		// admin may update anyone; other roles only themselves
		if actor.Role == user.RoleAdmin {
			return allow()
		}
		if !actor.owns(ownerUserID) {
			return deny(ReasonForbiddenOwnership)
		}
		return allow()

	case ActionDelete:
		if actor.Role != user.RoleAdmin {
			return deny(ReasonForbiddenRole)
		}
		// self-protection: no one deactivates their own account, role
		// notwithstanding
		if actor.owns(ownerUserID) {
			return deny(ReasonForbiddenSelf)
		}
		return allow()
	}

	return deny(ReasonForbiddenRole)
}

func decideEmployees(actor Actor, action Action, ownerUserID string) Decision {
	switch action {
	case ActionList:
		if actor.manager() {
			return allow()
		}
		// employees see only their own record
		return allowOwn()

	case ActionRead, ActionUpdate:
		if actor.manager() {
			return allow()
		}
		if !actor.owns(ownerUserID) {
			return deny(ReasonForbiddenOwnership)
		}
		return allow()

	case ActionCreate, ActionDelete:
		if !actor.manager() {
			return deny(ReasonForbiddenRole)
		}
		return allow()
	}

	return deny(ReasonForbiddenRole)
}

func decideDocuments(actor Actor, action Action, ownerUserID string) Decision {
	switch action {
	case ActionList:
		if actor.manager() {
			return allow()
		}
		return allowOwn()

	case ActionRead:
		if actor.manager() {
			return allow()
		}
		if !actor.owns(ownerUserID) {
			return deny(ReasonForbiddenOwnership)
		}
		return allow()

	case ActionCreate:
		// everyone may upload; employees only against their own record,
		// which the handler pins via the actor's employee id
		return allow()

	case ActionUpdate, ActionDelete:
		if actor.manager() {
			return allow()
		}
		// employees may change or archive documents on their own record,
		// including unattached ones, but need a linked employee record
		if actor.EmployeeID == "" {
			return deny(ReasonForbiddenOwnership)
		}
		if ownerUserID != "" && !actor.owns(ownerUserID) {
			return deny(ReasonForbiddenOwnership)
		}
		return allow()
	}

	return deny(ReasonForbiddenRole)
}

func decideReports(actor Actor, action Action) Decision {
	switch action {
	case ActionReport:
		if !actor.manager() {
			return deny(ReasonForbiddenRole)
		}
		return allow()

	case ActionQuery:
		// ad-hoc queries are admin only
		if actor.Role != user.RoleAdmin {
			return deny(ReasonForbiddenRole)
		}
		return allow()
	}

	return deny(ReasonForbiddenRole)
}
