package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/quote-service/internal/api/http/handlers"
	"github.com/spec-kit/quote-service/internal/auth"
	"github.com/spec-kit/quote-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Quotes         *handlers.QuotesHandler
	Assignments    *handlers.AssignmentHandler
	Files          *handlers.FilesHandler
	Groups         *handlers.GroupsHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	session := authGroup.Group("", cfg.AuthMiddleware.Handle)
	session.Post("/logout", cfg.Auth.Logout)
	session.Get("/me", cfg.Auth.Me)
	session.Post("/password", cfg.Auth.ChangePassword)

	staff := auth.RequireStaff()

	quotes := app.Group("/quotes", cfg.AuthMiddleware.Handle)
	quotes.Post("", auth.RequireRole(domain.RoleCustomer), cfg.Quotes.CreateQuote)
	quotes.Get("", cfg.Quotes.ListQuotes)
	quotes.Get("/:id", cfg.Quotes.GetQuote)
	quotes.Patch("/:id", cfg.Quotes.UpdateQuote)
	quotes.Delete("/:id", cfg.Quotes.DeleteQuote)
	quotes.Post("/:id/cancel", cfg.Quotes.CancelQuote)
	quotes.Post("/:id/supplier-confirm", auth.RequireRole(domain.RoleSupplier, domain.RoleAdmin), cfg.Quotes.ConfirmSupplierQuote)
	quotes.Post("/:id/reject", auth.RequireRole(domain.RoleQuoter, domain.RoleAdmin, domain.RoleSupplier), cfg.Quotes.RejectQuote)
	quotes.Post("/:id/confirm", staff, cfg.Quotes.ConfirmFinalQuote)
	quotes.Get("/:id/history", staff, cfg.Quotes.ListHistory)

	quotes.Post("/:id/quoter", staff, cfg.Assignments.AssignQuoter)
	quotes.Put("/:id/supplier", staff, cfg.Assignments.AssignSupplier)
	quotes.Put("/:id/groups", staff, cfg.Assignments.SetGroups)
	quotes.Delete("/:id/groups/:groupId", staff, cfg.Assignments.RemoveGroup)

	quotes.Post("/:id/files/:kind", cfg.Files.Upload)
	quotes.Delete("/:id/files/:kind", cfg.Files.DeleteAll)
	quotes.Get("/:id/files/:kind/:index", cfg.Files.Download)
	quotes.Delete("/:id/files/:kind/:index", cfg.Files.DeleteFile)

	groups := app.Group("/groups", cfg.AuthMiddleware.Handle, staff)
	groups.Post("/:kind", cfg.Groups.CreateGroup)
	groups.Get("/:kind", cfg.Groups.ListGroups)
	groups.Get("/:kind/:id", cfg.Groups.GetGroup)
	groups.Patch("/:kind/:id", cfg.Groups.UpdateGroup)
	groups.Delete("/:kind/:id", cfg.Groups.DeleteGroup)
	groups.Get("/:kind/:id/members", cfg.Groups.ListMembers)
	groups.Post("/:kind/:id/members", cfg.Groups.AddMember)
	groups.Delete("/:kind/:id/members/:userId", cfg.Groups.RemoveMember)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	users.Post("", cfg.Users.CreateUser)
	users.Get("", cfg.Users.ListUsers)
	users.Get("/:id", cfg.Users.GetUser)
	users.Patch("/:id", cfg.Users.UpdateUser)
}
