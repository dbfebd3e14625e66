package handler

import (
	"github.com/gofiber/fiber/v2"

	"docstore/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: decode, call the service, map the outcome.
func RegisterRoutes(app *fiber.App, health Pinger, docSvc service.DocumentService) {
	app.Get("/health", HealthCheck(health))
	app.Get("/healthz", LivenessProbe())

	app.Get("/documents", ListDocuments(docSvc))
	app.Post("/documents", UploadDocument(docSvc))
	app.Get("/documents/:id", GetDocument(docSvc))
	app.Get("/documents/:id/metadata", GetDocumentMetadata(docSvc))
	app.Delete("/documents/:id", DeleteDocument(docSvc))
}
