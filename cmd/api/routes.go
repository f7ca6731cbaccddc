package main

import (
	"github.com/gofiber/fiber/v2"

	"estacrm_backend/internal/controller"
	"estacrm_backend/internal/middleware"
	"estacrm_backend/internal/model"
	"estacrm_backend/internal/rbac"
	"estacrm_backend/internal/service/importer"
)

type controllers struct {
	health        *controller.HealthController
	auth          *controller.AuthController
	users         *controller.UserController
	leadStatuses  *controller.LeadStatusController
	sources       *controller.CatalogController[model.ReferenceSource, controller.NamedInput]
	categories    *controller.CatalogController[model.PropertyCategory, controller.NamedInput]
	propStatuses  *controller.CatalogController[model.PropertyStatus, controller.PropertyStatusInput]
	leads         *controller.LeadController
	leadReferrals *controller.ReferralController
	properties    *controller.PropertyController
	propReferrals *controller.ReferralController
	imports       *controller.ImportController
	viewings      *controller.ViewingController
	notifications *controller.NotificationController
	stats         *controller.StatsController
}

func setupRoutes(app *fiber.App, h *controllers, auth fiber.Handler, loginLimiter fiber.Handler) {
	can := middleware.RequirePermission

	api := app.Group("/api")
	api.Get("/health", h.health.Health)

	api.Post("/auth/login", loginLimiter, h.auth.Login)

	// Everything below requires a valid token.
	protected := api.Group("", auth)

	me := protected.Group("/auth")
	me.Get("/me", h.auth.GetMe)
	me.Put("/password", h.auth.ChangePassword)
	me.Get("/permissions", h.auth.Permissions)

	settings := protected.Group("/settings")
	settings.Get("/profile", h.auth.GetProfile)
	settings.Put("/profile", h.auth.UpdateProfile)

	// Users
	users := protected.Group("/users")
	users.Get("/referral-targets", h.users.ListReferralTargets)
	users.Get("/", can(rbac.PermUsersView), h.users.ListUsers)
	users.Get("/:id", can(rbac.PermUsersView), h.users.GetUser)
	users.Get("/:id/agents", can(rbac.PermUsersView), h.users.ListAgents)
	users.Post("/", can(rbac.PermUsersManage), h.users.CreateUser)
	users.Put("/:id", can(rbac.PermUsersManage), h.users.UpdateUser)
	users.Delete("/:id", can(rbac.PermUsersManage), h.users.DeleteUser)
	users.Put("/:id/team-leader", can(rbac.PermUsersManage), h.users.SetTeamLeader)
	users.Get("/:id/documents", can(rbac.PermDocumentsManage), h.users.ListDocuments)
	users.Post("/:id/documents", can(rbac.PermDocumentsManage), h.users.UploadDocument)
	users.Delete("/:id/documents/:docId", can(rbac.PermDocumentsManage), h.users.DeleteDocument)

	// Catalogs
	statuses := protected.Group("/lead-statuses")
	statuses.Get("/", h.leadStatuses.ListStatuses)
	statuses.Get("/:id", h.leadStatuses.GetStatus)
	statuses.Post("/", can(rbac.PermCatalogManage), h.leadStatuses.CreateStatus)
	statuses.Put("/:id", can(rbac.PermCatalogManage), h.leadStatuses.UpdateStatus)
	statuses.Delete("/:id", can(rbac.PermCatalogManage), h.leadStatuses.DeleteStatus)

	catalog(protected.Group("/reference-sources"), h.sources.List, h.sources.Get, h.sources.Create, h.sources.Update, h.sources.Delete)
	catalog(protected.Group("/property-categories"), h.categories.List, h.categories.Get, h.categories.Create, h.categories.Update, h.categories.Delete)
	catalog(protected.Group("/property-statuses"), h.propStatuses.List, h.propStatuses.Get, h.propStatuses.Create, h.propStatuses.Update, h.propStatuses.Delete)

	// Leads
	leads := protected.Group("/leads")
	leads.Get("/", can(rbac.PermLeadsView), h.leads.ListLeads)
	leads.Post("/", can(rbac.PermLeadsManage), h.leads.CreateLead)
	leads.Post("/import", can(rbac.PermLeadsImport), h.imports.Handler(importer.EntityLeads))
	leads.Get("/referrals/pending", can(rbac.PermLeadsView), h.leadReferrals.Pending)
	leads.Post("/referrals/:referralId/confirm", can(rbac.PermLeadsView), h.leadReferrals.Confirm)
	leads.Post("/referrals/:referralId/reject", can(rbac.PermLeadsView), h.leadReferrals.Reject)
	leads.Get("/:id", can(rbac.PermLeadsView), h.leads.GetLead)
	leads.Put("/:id", can(rbac.PermLeadsManage), h.leads.UpdateLead)
	leads.Delete("/:id", can(rbac.PermLeadsDelete), h.leads.DeleteLead)
	leads.Post("/:id/refer", can(rbac.PermLeadsRefer), h.leadReferrals.Refer)
	leads.Get("/:id/referrals", can(rbac.PermLeadsView), h.leadReferrals.History)

	// Properties
	props := protected.Group("/properties")
	props.Get("/", can(rbac.PermPropertiesView), h.properties.ListProperties)
	props.Post("/", can(rbac.PermPropertiesManage), h.properties.CreateProperty)
	props.Post("/import", can(rbac.PermPropertiesImport), h.imports.Handler(importer.EntityProperties))
	props.Get("/referrals/pending", can(rbac.PermPropertiesView), h.propReferrals.Pending)
	props.Post("/referrals/:referralId/confirm", can(rbac.PermPropertiesView), h.propReferrals.Confirm)
	props.Post("/referrals/:referralId/reject", can(rbac.PermPropertiesView), h.propReferrals.Reject)
	props.Get("/:id", can(rbac.PermPropertiesView), h.properties.GetProperty)
	props.Put("/:id", can(rbac.PermPropertiesManage), h.properties.UpdateProperty)
	props.Delete("/:id", can(rbac.PermPropertiesDelete), h.properties.DeleteProperty)
	props.Post("/:id/images", can(rbac.PermPropertiesManage), h.properties.UploadImage)
	props.Delete("/:id/images/:imageId", can(rbac.PermPropertiesManage), h.properties.DeleteImage)
	props.Post("/:id/refer", can(rbac.PermPropertiesRefer), h.propReferrals.Refer)
	props.Get("/:id/referrals", can(rbac.PermPropertiesView), h.propReferrals.History)

	// Viewings
	viewings := protected.Group("/viewings", can(rbac.PermViewingsManage))
	viewings.Get("/", h.viewings.ListViewings)
	viewings.Get("/serious", h.viewings.ListSerious)
	viewings.Post("/", h.viewings.CreateViewing)
	viewings.Get("/:id", h.viewings.GetViewing)
	viewings.Put("/:id", h.viewings.UpdateViewing)
	viewings.Delete("/:id", h.viewings.DeleteViewing)
	viewings.Get("/:id/updates", h.viewings.ListUpdates)
	viewings.Post("/:id/updates", h.viewings.AddUpdate)
	viewings.Put("/:id/updates/:updateId", h.viewings.EditUpdate)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", h.notifications.List)
	notifications.Get("/unread-count", h.notifications.UnreadCount)
	notifications.Put("/read-all", h.notifications.MarkAllRead)
	notifications.Put("/:id/read", h.notifications.MarkRead)
	notifications.Delete("/:id", h.notifications.Delete)

	// Dashboard and reports
	protected.Get("/dashboard/stats", h.stats.Dashboard)
	reports := protected.Group("/reports")
	reports.Get("/commission", can(rbac.PermReportsView), exportGuard(), h.stats.Commission)
	reports.Get("/sources", can(rbac.PermReportsView), exportGuard(), h.stats.Sources)
}

func catalog(r fiber.Router, list, get, create, update, del fiber.Handler) {
	r.Get("/", list)
	r.Get("/:id", get)
	r.Post("/", middleware.RequirePermission(rbac.PermCatalogManage), create)
	r.Put("/:id", middleware.RequirePermission(rbac.PermCatalogManage), update)
	r.Delete("/:id", middleware.RequirePermission(rbac.PermCatalogManage), del)
}

// exportGuard requires reports.export for file downloads only.
func exportGuard() fiber.Handler {
	export := middleware.RequirePermission(rbac.PermReportsExport)
	return func(c *fiber.Ctx) error {
		switch c.Query("format") {
		case "", "json":
			return c.Next()
		}
		return export(c)
	}
}
