package v1

import (
	"jobradar/internal/config"
	"jobradar/internal/delivery/http/handler"
	"jobradar/internal/delivery/http/middleware"
	"jobradar/internal/export"
	"jobradar/internal/pkg/jwt"
	"jobradar/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

// Deps carries the already-wired application services into the route tree.
type Deps struct {
	Config  config.Config
	JWT     jwt.Service
	Auth    usecase.AuthUsecase
	Jobs    usecase.JobListUsecase
	Sources usecase.SourceUsecase
	Runs    usecase.RunUsecase
	Exports *export.Service
}

func Register(r fiber.Router, d Deps) {
	if r == nil {
		return
	}

	jobsHandler := handler.NewJobsHandler(d.Jobs)
	sourcesHandler := handler.NewSourcesHandler(d.Sources)
	runsHandler := handler.NewRunsHandler(d.Runs)
	exportsHandler := handler.NewExportsHandler(d.Exports)

	// With no admin key configured the API runs open; that is the
	// single-user local setup.
	protected := r.Group("")
	if d.Config.JWT.AdminKey != "" {
		authHandler := handler.NewAuthHandler(d.Auth)
		authHandler.RegisterRoutes(r.Group("/auth"))

		authMw := middleware.NewAuthMiddleware(d.JWT)
		protected = r.Group("", authMw.Middleware())
	}

	jobsHandler.RegisterRoutes(protected.Group("/jobs"))
	sourcesHandler.RegisterRoutes(protected.Group("/sources"))
	runsHandler.RegisterRoutes(protected.Group("/runs"))
	exportsHandler.RegisterRoutes(protected.Group("/exports"))
}
