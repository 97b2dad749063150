package app

import (
	"fmt"
	"strings"

	"jobradar/internal/delivery/http/handler"
	"jobradar/internal/delivery/http/middleware"
	"jobradar/internal/delivery/http/routes"
	v1 "jobradar/internal/delivery/http/routes/v1"
	"jobradar/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// Bootstrap assembles the HTTP server around an already-built container.
func Bootstrap(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	errMw := middleware.NewErrorMiddleware()
	f.Use(errMw.Middleware())

	accessMw := middleware.NewAccessLogMiddleware(c.Logger)
	f.Use(accessMw.Middleware())

	health := handler.NewHealthHandler(c.DB, c.Cache)
	registry := routes.NewRegistry(health, v1.Deps{
		Config:  c.Config,
		JWT:     c.JWT,
		Auth:    c.AuthUC,
		Jobs:    c.JobsUC,
		Sources: c.SourcesUC,
		Runs:    c.RunsUC,
		Exports: c.ExportSvc,
	})
	registry.Register(f)

	wsHandler := ws.NewHandler(c.Hub, c.Logger)
	f.Get("/ws/runs", wsHandler.HandleRunsWS)

	return &App{Fiber: f, Container: c}
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
