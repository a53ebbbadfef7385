package policy

import (
	"testing"

	"cmms-engine/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func actor(role domain.Role) domain.Actor {
	return domain.Actor{ID: "u-1", Role: role}
}

func TestAuthorize(t *testing.T) {
	testCases := []struct {
		role   domain.Role
		action Action
		allow  bool
	}{
		{domain.RoleManager, ActionValidate, true},
		{domain.RoleAdmin, ActionApprove, true},
		{domain.RoleTechnician, ActionApprove, false},
		{domain.RoleTechnician, ActionValidate, false},
		{domain.RoleStockManager, ActionReservePart, true},
		{domain.RoleTechnician, ActionReservePart, false},
		{domain.RoleSystem, ActionExecuteSchedule, true},
		{domain.RoleSystem, ActionCreate, false},
		{domain.RoleRequester, ActionCreate, true},
		{domain.RoleStockManager, ActionStart, false},
		{"", ActionCreate, false},
	}
	for _, tc := range testCases {
		t.Run(string(tc.role)+"/"+string(tc.action), func(t *testing.T) {
			err := Authorize(actor(tc.role), tc.action)
			if tc.allow {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrUnauthorized)
			}
		})
	}
}

func TestAuthorizeInState(t *testing.T) {
	assert.NoError(t, AuthorizeInState(actor(domain.RoleRequester), ActionCancel, domain.StatusPending))
	assert.ErrorIs(t, AuthorizeInState(actor(domain.RoleRequester), ActionCancel, domain.StatusInProgress), domain.ErrUnauthorized)
	assert.NoError(t, AuthorizeInState(actor(domain.RoleManager), ActionCancel, domain.StatusInProgress))
	assert.NoError(t, AuthorizeInState(actor(domain.RoleTechnician), ActionUpdate, domain.StatusDraft))
	assert.ErrorIs(t, AuthorizeInState(actor(domain.RoleTechnician), ActionUpdate, domain.StatusPlanned), domain.ErrUnauthorized)
}

func TestRequireAssignee(t *testing.T) {
	tech := "tech-1"
	wo := &domain.WorkOrder{ID: "wo-1", AssignedToID: &tech}

	assert.NoError(t, RequireAssignee(domain.Actor{ID: "tech-1", Role: domain.RoleTechnician}, wo))
	assert.ErrorIs(t, RequireAssignee(domain.Actor{ID: "tech-2", Role: domain.RoleTechnician}, wo), domain.ErrUnauthorized)
	assert.NoError(t, RequireAssignee(domain.Actor{ID: "mgr-1", Role: domain.RoleManager}, wo))
	assert.ErrorIs(t, RequireAssignee(domain.Actor{ID: "tech-1", Role: domain.RoleTechnician}, &domain.WorkOrder{ID: "wo-2"}), domain.ErrUnauthorized)
}
