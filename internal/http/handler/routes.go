package handler

import (
	"github.com/gofiber/fiber/v2"

	"zamahub/internal/service"
	"zamahub/internal/storage"
)

// Deps are the collaborators the HTTP layer needs. DB may be nil for the in-memory store.
type Deps struct {
	DB             Pinger
	ENS            service.ENSService
	Spaces         service.SpaceService
	Browser        SpaceLister
	Store          storage.Storage
	UploadMaxBytes int64
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parse, call the service, map the error kind.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	// Simple liveness probe
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Post("/ens", RegisterENS(d.ENS))
	api.Get("/ens", ListENSNames(d.ENS))

	api.Post("/spaces", CreateSpace(d.Spaces, d.UploadMaxBytes))
	api.Get("/spaces", ListSpaces(d.Browser))
	api.Get("/spaces/:spaceId", GetSpace(d.Spaces))
	api.Put("/spaces/:spaceId", UpdateSpace(d.Spaces, d.UploadMaxBytes))

	app.Get("/spaces", SpacesDashboard(d.Browser))
	app.Get(service.UploadURLPrefix+"*", ServeUpload(d.Store))
}
