package import_feature

import (
	"go-crm-import/internal/common/api"
	"go-crm-import/internal/config"
	"go-crm-import/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type ImportApi struct {
	ImportController *ImportController
	Config           *config.Config
}

func NewImportApi(importController *ImportController, config *config.Config) api.Route {
	return &ImportApi{
		ImportController: importController,
		Config:           config,
	}
}

func (api *ImportApi) Setup(app *fiber.App) {
	group := app.Group("/api/import", middleware.AuthMiddleware(api.Config.SkipAuth))

	group.Post("/sessions", api.ImportController.CreateSession)
	group.Get("/sessions/:id", api.ImportController.GetSession)
	group.Delete("/sessions/:id", api.ImportController.CloseSession)
	group.Post("/sessions/:id/file", api.ImportController.UploadFile)
	group.Post("/sessions/:id/back", api.ImportController.Back)
	group.Post("/sessions/:id/reset", api.ImportController.Reset)

	group.Put("/sessions/:id/mapping/:column", api.ImportController.SetMapping)
	group.Post("/sessions/:id/columns/show", api.ImportController.ShowAllColumns)
	group.Post("/sessions/:id/columns/:column/hide", api.ImportController.HideColumn)

	group.Post("/sessions/:id/preview", api.ImportController.LoadPreview)
	group.Put("/sessions/:id/rows/:row/cells/:column", api.ImportController.EditCell)
	group.Delete("/sessions/:id/rows/:row", api.ImportController.DeleteRow)

	group.Post("/sessions/:id/validate", api.ImportController.Validate)
	group.Post("/sessions/:id/commit", api.ImportController.Commit)
	group.Get("/sessions/:id/status", api.ImportController.Status)
	group.Get("/sessions/:id/ws", api.ImportController.UpgradeStream, websocket.New(api.ImportController.StreamStatus))
	group.Get("/sessions/:id/logs/export", api.ImportController.ExportLogs)

	group.Get("/templates/:entity", api.ImportController.Template)
	group.Get("/fields/:entity", api.ImportController.Fields)
	group.Get("/history", api.ImportController.History)
	group.Get("/admin/history", middleware.RequireRole(api.Config.SkipAuth, "admin"), api.ImportController.AllHistory)
}
