package main

import (
	"tripdesk/internal/handlers"
	"tripdesk/internal/middleware"
	"tripdesk/internal/policy"
	"tripdesk/internal/repositories"

	"github.com/labstack/echo/v4"
)

type routeHandlers struct {
	organizations *handlers.OrganizationHandlers
	members       *handlers.MemberHandlers
	invites       *handlers.InviteHandlers
	functions     *handlers.FunctionHandlers
	customers     *handlers.CustomerHandlers
	packages      *handlers.PackageHandlers
	orders        *handlers.OrderHandlers
	payments      *handlers.PaymentHandlers
	dashboard     *handlers.DashboardHandlers
	auditLogs     *handlers.AuditLogsHandlers
}

// registerRoutes mounts the v1 API. auth authenticates the caller; every
// /orgs/:orgID route additionally requires an active membership and the
// capability the action needs.
func registerRoutes(v1 *echo.Group, h routeHandlers, auth []echo.MiddlewareFunc, memberRepo repositories.MemberRepository, audit middleware.AuditRecorder) {
	can := middleware.RequireCapability

	// Invite previews are public so the accept page can render before login.
	v1.GET("/invites/:token", h.invites.PreviewInvite)

	protected := v1.Group("", auth...)
	protected.POST("/invites/:token/accept", h.invites.AcceptInvite)

	protected.POST("/orgs", h.organizations.CreateOrganization)
	protected.GET("/orgs", h.organizations.ListMyOrganizations)

	fn := protected.Group("/functions")
	fn.POST("/send-invite", h.functions.SendInvite)
	fn.POST("/admin-update-password", h.functions.AdminUpdatePassword)
	fn.POST("/send-reminder", h.functions.SendReminder)

	org := protected.Group("/orgs/:orgID", middleware.RequireMembership(memberRepo), middleware.Audit(audit))
	org.GET("", h.organizations.GetOrganization, can(policy.ActionRead))
	org.PATCH("", h.organizations.UpdateOrganization, can(policy.ActionOrgUpdate))
	org.POST("/logo", h.organizations.UploadLogo, can(policy.ActionOrgUploadLogo))
	org.GET("/theme", h.organizations.GetTheme, can(policy.ActionRead))
	org.GET("/capabilities", h.organizations.GetCapabilities)
	org.GET("/dashboard", h.dashboard.GetDashboard, can(policy.ActionDashboardView))
	org.GET("/audit-logs", h.auditLogs.ListAuditLogs, can(policy.ActionAuditView))

	org.GET("/members", h.members.ListMembers, can(policy.ActionRead))
	org.PATCH("/members/:id/role", h.members.ChangeRole, can(policy.ActionMembersManage))
	org.POST("/members/:id/deactivate", h.members.DeactivateMember, can(policy.ActionMembersManage))
	org.POST("/members/:id/reactivate", h.members.ReactivateMember, can(policy.ActionMembersManage))

	org.GET("/invites", h.invites.ListPendingInvites, can(policy.ActionInvitesManage))
	org.DELETE("/invites/:id", h.invites.RevokeInvite, can(policy.ActionInvitesManage))

	org.GET("/customers", h.customers.ListCustomers, can(policy.ActionRead))
	org.POST("/customers", h.customers.CreateCustomer, can(policy.ActionCustomersWrite))
	org.GET("/customers/:id", h.customers.GetCustomer, can(policy.ActionRead))
	org.PUT("/customers/:id", h.customers.UpdateCustomer, can(policy.ActionCustomersWrite))
	org.DELETE("/customers/:id", h.customers.DeleteCustomer, can(policy.ActionCustomersDelete))

	org.GET("/packages", h.packages.ListPackages, can(policy.ActionRead))
	org.POST("/packages", h.packages.CreatePackage, can(policy.ActionPackagesWrite))
	org.GET("/packages/:id", h.packages.GetPackage, can(policy.ActionRead))
	org.PUT("/packages/:id", h.packages.UpdatePackage, can(policy.ActionPackagesWrite))
	org.DELETE("/packages/:id", h.packages.DeletePackage, can(policy.ActionPackagesDelete))

	org.GET("/orders", h.orders.ListOrders, can(policy.ActionRead))
	org.POST("/orders", h.orders.CreateOrder, can(policy.ActionOrdersWrite))
	org.GET("/orders/:id", h.orders.GetOrder, can(policy.ActionRead))
	org.PATCH("/orders/:id", h.orders.UpdateOrder, can(policy.ActionOrdersWrite))
	org.DELETE("/orders/:id", h.orders.DeleteOrder, can(policy.ActionOrdersDelete))
	org.GET("/orders/:id/payment", h.payments.GetOrderPayment, can(policy.ActionRead))

	org.GET("/payments", h.payments.ListPayments, can(policy.ActionRead))
	org.POST("/payments", h.payments.CreatePayment, can(policy.ActionPaymentsWrite))
	org.GET("/payments/:id", h.payments.GetPayment, can(policy.ActionRead))
	org.PATCH("/payments/:id", h.payments.UpdatePayment, can(policy.ActionPaymentsWrite))
	org.DELETE("/payments/:id", h.payments.DeletePayment, can(policy.ActionPaymentsDelete))
	org.POST("/payments/:id/installments", h.payments.CreateInstallments, can(policy.ActionPaymentsWrite))

	org.PATCH("/installments/:id/amount", h.payments.EditInstallmentAmount, can(policy.ActionInstallmentsWrite))
	org.PATCH("/installments/:id/due-date", h.payments.EditInstallmentDueDate, can(policy.ActionInstallmentsWrite))
	org.PATCH("/installments/:id/details", h.payments.EditInstallmentDetails, can(policy.ActionInstallmentsWrite))
	org.POST("/installments/:id/pay", h.payments.LaunchInstallmentPayment, can(policy.ActionInstallmentsWrite))
}
