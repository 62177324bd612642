package handler

import (
	"github.com/gofiber/fiber/v2"

	"treatviz/internal/service"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Health    Pinger
	Settings  service.SettingsService
	Documents service.DocumentService
	Imaging   service.ImagingService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers only translate HTTP to service calls and back.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.Health))
	app.Get("/healthz", LivenessCheck())

	api := app.Group("/api")

	api.Get("/settings", GetSettings(d.Settings))
	api.Post("/settings", UpdateSettings(d.Settings))

	api.Get("/documents", ListDocuments(d.Settings, d.Documents))
	api.Post("/documents", UploadDocuments(d.Documents))
	api.Get("/documents/:id", GetDocument(d.Documents))
	api.Get("/documents/:id/text", GetDocumentText(d.Documents))

	api.Post("/edit-image", EditImage(d.Imaging))
	api.Post("/analyze", Analyze(d.Imaging))
}
