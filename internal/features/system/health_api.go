package system

import (
	"context"
	"time"

	"go-crm-import/internal/common/api"
	"go-crm-import/internal/database"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct {
	DB      *database.MongodbDB
	started time.Time
}

func NewHealthController(db *database.MongodbDB) *HealthController {
	return &HealthController{DB: db, started: time.Now()}
}

// Health godoc
// @Summary Service health
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/health [get]
func (h *HealthController) Health(c *fiber.Ctx) error {
	status := fiber.Map{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.DB.DB.Client().Ping(ctx, nil); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	status["database"] = "ok"
	return c.JSON(status)
}

type HealthApi struct {
	Controller *HealthController
}

func NewHealthApi(controller *HealthController) api.Route {
	return &HealthApi{Controller: controller}
}

func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/api/health", h.Controller.Health)
}
