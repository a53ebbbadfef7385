// Package policy maps (role, action, work order status) to allow/deny. Use
// cases evaluate it once at their entry point.
package policy

import (
	"cmms-engine/internal/core/domain"
)

// Action is a use-case entry point subject to authorization
type Action string

const (
	ActionCreate          Action = "work_order.create"
	ActionSubmit          Action = "work_order.submit"
	ActionUpdate          Action = "work_order.update"
	ActionStart           Action = "work_order.start"
	ActionComplete        Action = "work_order.complete"
	ActionValidate        Action = "work_order.validate"
	ActionApprove         Action = "work_order.approve"
	ActionReject          Action = "work_order.reject"
	ActionCancel          Action = "work_order.cancel"
	ActionAddPart         Action = "work_order.add_part"
	ActionRemovePart      Action = "work_order.remove_part"
	ActionReservePart     Action = "part.reserve"
	ActionReleasePart     Action = "part.release"
	ActionManageSchedule  Action = "schedule.manage"
	ActionExecuteSchedule Action = "schedule.execute"
	ActionRecordReading   Action = "schedule.record_reading"
)

// grant lists the statuses a role may act in. A nil slice means any status.
type grant map[domain.Role][]domain.WorkOrderStatus

var supervisors = grant{
	domain.RoleAdmin:   nil,
	domain.RoleManager: nil,
}

func with(base grant, role domain.Role, statuses ...domain.WorkOrderStatus) grant {
	g := make(grant, len(base)+1)
	for r, s := range base {
		g[r] = s
	}
	g[role] = statuses
	return g
}

var table = map[Action]grant{
	ActionCreate:          with(with(supervisors, domain.RoleTechnician), domain.RoleRequester),
	ActionSubmit:          with(with(supervisors, domain.RoleTechnician, domain.StatusDraft), domain.RoleRequester, domain.StatusDraft),
	ActionUpdate:          with(with(supervisors, domain.RoleTechnician, domain.StatusDraft), domain.RoleRequester, domain.StatusDraft),
	ActionStart:           with(supervisors, domain.RoleTechnician),
	ActionComplete:        with(supervisors, domain.RoleTechnician),
	ActionValidate:        supervisors,
	ActionApprove:         supervisors,
	ActionReject:          supervisors,
	ActionCancel:          with(supervisors, domain.RoleRequester, domain.StatusDraft, domain.StatusPending),
	ActionAddPart:         with(supervisors, domain.RoleTechnician),
	ActionRemovePart:      with(supervisors, domain.RoleTechnician),
	ActionReservePart:     with(supervisors, domain.RoleStockManager),
	ActionReleasePart:     with(supervisors, domain.RoleStockManager),
	ActionManageSchedule:  supervisors,
	ActionExecuteSchedule: with(supervisors, domain.RoleSystem),
	ActionRecordReading:   with(with(supervisors, domain.RoleTechnician), domain.RoleSystem),
}

// Authorize checks an action that does not depend on a work order status.
func Authorize(actor domain.Actor, action Action) error {
	g, ok := table[action]
	if !ok {
		return domain.Unauthorized("unknown action %s", action)
	}
	if _, ok := g[actor.Role]; !ok {
		return domain.Unauthorized("role %s may not perform %s", roleName(actor.Role), action)
	}
	return nil
}

// AuthorizeInState checks an action against the work order's current status.
func AuthorizeInState(actor domain.Actor, action Action, status domain.WorkOrderStatus) error {
	if err := Authorize(actor, action); err != nil {
		return err
	}
	statuses := table[action][actor.Role]
	if statuses == nil {
		return nil
	}
	for _, s := range statuses {
		if s == status {
			return nil
		}
	}
	return domain.Unauthorized("role %s may not perform %s on a %s work order", actor.Role, action, status)
}

// RequireAssignee restricts technicians to the work orders assigned to them.
// Supervisors are not restricted.
func RequireAssignee(actor domain.Actor, wo *domain.WorkOrder) error {
	if actor.Role != domain.RoleTechnician {
		return nil
	}
	if !wo.IsAssignedTo(actor.ID) {
		return domain.Unauthorized("work order %s is not assigned to %s", wo.ID, actor.ID)
	}
	return nil
}

func roleName(r domain.Role) string {
	if r == "" {
		return "<none>"
	}
	return string(r)
}
