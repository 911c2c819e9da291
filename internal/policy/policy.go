// Package policy decides what each organization role may do.
package policy

import (
	"fmt"
	"sort"

	"tripdesk/internal/models"
)

type Action string

const (
	ActionRead              Action = "read"
	ActionDashboardView     Action = "dashboard.view"
	ActionOrgUpdate         Action = "org.update"
	ActionOrgUploadLogo     Action = "org.upload_logo"
	ActionMembersManage     Action = "members.manage"
	ActionInvitesManage     Action = "invites.manage"
	ActionCustomersWrite    Action = "customers.write"
	ActionCustomersDelete   Action = "customers.delete"
	ActionPackagesWrite     Action = "packages.write"
	ActionPackagesDelete    Action = "packages.delete"
	ActionOrdersWrite       Action = "orders.write"
	ActionOrdersDelete      Action = "orders.delete"
	ActionPaymentsWrite     Action = "payments.write"
	ActionPaymentsDelete    Action = "payments.delete"
	ActionInstallmentsWrite Action = "installments.write"
	ActionAuditView         Action = "audit.view"
)

// Decision is an allow/deny answer with a reason suitable for display.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

var agentActions = map[Action]bool{
	ActionRead:              true,
	ActionDashboardView:     true,
	ActionCustomersWrite:    true,
	ActionCustomersDelete:   true,
	ActionPackagesWrite:     true,
	ActionOrdersWrite:       true,
	ActionOrdersDelete:      true,
	ActionPaymentsWrite:     true,
	ActionPaymentsDelete:    true,
	ActionInstallmentsWrite: true,
}

var viewerActions = map[Action]bool{
	ActionRead:          true,
	ActionDashboardView: true,
}

// Actions lists every known action in a stable order.
func Actions() []Action {
	all := []Action{
		ActionRead, ActionDashboardView, ActionOrgUpdate, ActionOrgUploadLogo,
		ActionMembersManage, ActionInvitesManage,
		ActionCustomersWrite, ActionCustomersDelete, ActionPackagesWrite, ActionPackagesDelete,
		ActionOrdersWrite, ActionOrdersDelete, ActionPaymentsWrite, ActionPaymentsDelete,
		ActionInstallmentsWrite, ActionAuditView,
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}

func known(action Action) bool {
	for _, a := range Actions() {
		if a == action {
			return true
		}
	}
	return false
}

// Decide is the single source of truth for role capabilities.
func Decide(role models.Role, action Action) Decision {
	if !known(action) {
		return deny("unknown action %q", action)
	}
	switch role {
	case models.RoleOwner:
		return allow("owners can do everything in their organization")
	case models.RoleAdmin:
		return allow("admins can do everything in their organization")
	case models.RoleAgent:
		if agentActions[action] {
			return allow("agents can %s", describe(action))
		}
		return deny("only owners and admins can %s", describe(action))
	case models.RoleViewer:
		if viewerActions[action] {
			return allow("viewers can %s", describe(action))
		}
		return deny("viewers have read-only access and cannot %s", describe(action))
	default:
		return deny("you are not a member of this organization")
	}
}

// Matrix returns the decision for every action, for capability display.
func Matrix(role models.Role) map[Action]Decision {
	out := make(map[Action]Decision, len(agentActions))
	for _, a := range Actions() {
		out[a] = Decide(role, a)
	}
	return out
}

func describe(action Action) string {
	switch action {
	case ActionRead:
		return "view organization data"
	case ActionDashboardView:
		return "view the dashboard"
	case ActionOrgUpdate:
		return "change organization settings"
	case ActionOrgUploadLogo:
		return "change the organization logo"
	case ActionMembersManage:
		return "manage team members"
	case ActionInvitesManage:
		return "invite new members"
	case ActionCustomersWrite:
		return "create or edit customers"
	case ActionCustomersDelete:
		return "delete customers"
	case ActionPackagesWrite:
		return "create or edit packages"
	case ActionPackagesDelete:
		return "delete packages"
	case ActionOrdersWrite:
		return "create or edit orders"
	case ActionOrdersDelete:
		return "delete orders"
	case ActionPaymentsWrite:
		return "create or edit payments"
	case ActionPaymentsDelete:
		return "delete payments"
	case ActionInstallmentsWrite:
		return "edit installments"
	case ActionAuditView:
		return "view the activity log"
	}
	return string(action)
}

func allow(format string, args ...any) Decision {
	return Decision{Allowed: true, Reason: fmt.Sprintf(format, args...)}
}

func deny(format string, args ...any) Decision {
	return Decision{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}
