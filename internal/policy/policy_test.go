package policy

import (
	"testing"

	"tripdesk/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDecide_OwnerAndAdminCanDoEverything(t *testing.T) {
	for _, role := range []models.Role{models.RoleOwner, models.RoleAdmin} {
		for _, action := range Actions() {
			d := Decide(role, action)
			assert.True(t, d.Allowed, "%s %s", role, action)
			assert.NotEmpty(t, d.Reason)
		}
	}
}

func TestDecide_Agent(t *testing.T) {
	allowed := []Action{ActionOrdersWrite, ActionOrdersDelete, ActionCustomersDelete, ActionInstallmentsWrite, ActionPackagesWrite}
	for _, a := range allowed {
		assert.True(t, Decide(models.RoleAgent, a).Allowed, a)
	}

	denied := []Action{ActionPackagesDelete, ActionMembersManage, ActionInvitesManage, ActionOrgUpdate, ActionOrgUploadLogo, ActionAuditView}
	for _, a := range denied {
		d := Decide(models.RoleAgent, a)
		assert.False(t, d.Allowed, a)
		assert.Contains(t, d.Reason, "only owners and admins")
	}
}

func TestDecide_ViewerIsReadOnly(t *testing.T) {
	assert.True(t, Decide(models.RoleViewer, ActionRead).Allowed)
	assert.True(t, Decide(models.RoleViewer, ActionDashboardView).Allowed)

	d := Decide(models.RoleViewer, ActionOrdersDelete)
	assert.False(t, d.Allowed)
	assert.Equal(t, "viewers have read-only access and cannot delete orders", d.Reason)
}

func TestDecide_UnknownRoleAndAction(t *testing.T) {
	assert.False(t, Decide(models.Role(""), ActionRead).Allowed)
	assert.False(t, Decide(models.Role("superuser"), ActionRead).Allowed)

	d := Decide(models.RoleOwner, Action("orders.teleport"))
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "unknown action")
}

func TestMatrix_CoversEveryAction(t *testing.T) {
	m := Matrix(models.RoleAgent)
	assert.Len(t, m, len(Actions()))
	assert.False(t, m[ActionInvitesManage].Allowed)
	assert.True(t, m[ActionPaymentsWrite].Allowed)
}
