package import_feature

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go-crm-import/internal/frappe"
	"go-crm-import/internal/logger"
	"go-crm-import/internal/middleware"
	"go-crm-import/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ImportController struct {
	ImportService ImportService
	Logger        *zap.Logger
}

func NewImportController(importService ImportService, logger *zap.Logger) *ImportController {
	return &ImportController{
		ImportService: importService,
		Logger:        logger,
	}
}

// writeError maps workflow and backend errors onto HTTP statuses.
func writeError(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{"error": err.Error()}

	var validationErr *ValidationError
	var abortErr *AbortError
	var apiErr *frappe.APIError

	switch {
	case errors.Is(err, ErrSessionNotFound):
		status = fiber.StatusNotFound
	case errors.As(err, &validationErr):
		status = fiber.StatusUnprocessableEntity
		body["row"] = validationErr.Row
		body["field"] = validationErr.Fieldname
	case errors.As(err, &abortErr):
		status = fiber.StatusUnprocessableEntity
		body["warnings"] = abortErr.Messages
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrWrongStep), errors.Is(err, ErrNoReport):
		status = fiber.StatusConflict
	case errors.Is(err, ErrUnknownField), errors.Is(err, ErrUnknownColumn), errors.Is(err, ErrRowOutOfRange),
		errors.Is(err, ErrMissingFile), errors.Is(err, ErrUnsupportedFile), errors.Is(err, ErrUnsupportedEntity):
		status = fiber.StatusBadRequest
	case errors.As(err, &apiErr):
		status = fiber.StatusBadGateway
	}

	return ctx.Status(status).JSON(body)
}

func intParam(ctx *fiber.Ctx, name string) (int, error) {
	n, err := strconv.Atoi(ctx.Params(name))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

func uploadedFile(ctx *fiber.Ctx) (*FileUpload, func(), error) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return nil, nil, ErrMissingFile
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return &FileUpload{Filename: fileHeader.Filename, Content: file}, func() { file.Close() }, nil
}

// CreateSession godoc
// @Summary Start an import
// @Description Upload a CSV/Excel file for an entity, create the backend import job and seed the column mapping
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Import File"
// @Param entity formData string true "Target entity (Attendance, Contact)"
// @Success 201 {object} SessionView
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/import/sessions [post]
func (c *ImportController) CreateSession(ctx *fiber.Ctx) error {
	req := InitializeRequest{Entity: ctx.FormValue("entity")}
	if err := validateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	file, closeFile, err := uploadedFile(ctx)
	if err != nil {
		return writeError(ctx, err)
	}
	defer closeFile()

	view, err := c.ImportService.Initialize(ctx.UserContext(), middleware.CurrentUserID(ctx), req.Entity, file)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(view)
}

// UploadFile godoc
// @Summary Upload a new file into a session
// @Description Replace the source file after going back to the upload step
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file true "Import File"
// @Success 200 {object} SessionView
// @Router /api/import/sessions/{id}/file [post]
func (c *ImportController) UploadFile(ctx *fiber.Ctx) error {
	file, closeFile, err := uploadedFile(ctx)
	if err != nil {
		return writeError(ctx, err)
	}
	defer closeFile()

	view, err := c.ImportService.Upload(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id"), file)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(view)
}

// GetSession godoc
// @Summary Get import session
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionView
// @Failure 404 {object} map[string]interface{}
// @Router /api/import/sessions/{id} [get]
func (c *ImportController) GetSession(ctx *fiber.Ctx) error {
	view, err := c.ImportService.Get(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id"))
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(view)
}

// CloseSession godoc
// @Summary Close import session
// @Description Discard the session and stop watching its job
// @Tags import
// @Param id path string true "Session ID"
// @Success 204
// @Router /api/import/sessions/{id} [delete]
func (c *ImportController) CloseSession(ctx *fiber.Ctx) error {
	if err := c.ImportService.Close(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id")); err != nil {
		return writeError(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// Back godoc
// @Summary Go back one step
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionView
// @Failure 409 {object} map[string]interface{}
// @Router /api/import/sessions/{id}/back [post]
func (c *ImportController) Back(ctx *fiber.Ctx) error {
	view, err := c.ImportService.Back(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id"))
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(view)
}

// Reset godoc
// @Summary Start over
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionView
// @Router /api/import/sessions/{id}/reset [post]
func (c *ImportController) Reset(ctx *fiber.Ctx) error {
	view, err := c.ImportService.Reset(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id"))
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(view)
}

// SetMapping godoc
// @Summary Map a column
// @Tags import
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param column path int true "Column index"
// @Param body body SetMappingRequest true "Field or skip"
// @Success 200 {object} SessionView
// @Failure 400 {object} map[string]interface{}
// @Router /api/import/sessions/{id}/mapping/{column} [put]
func (c *ImportController) SetMapping(ctx *fiber.Ctx) error {
	column, err := intParam(ctx, "column")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var req SetMappingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	view, err := c.ImportService.SetMapping(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id"), column, req.Target())
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(view)
}

// HideColumn godoc
// @Summary Hide a column
// @Description Hide a column from the mapping surface; it is skipped on import
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Param column path int true "Column index"
// @Success 200 {object} SessionView
// @Router /api/import/sessions/{id}/columns/{column}/hide [post]
func (c *ImportController) HideColumn(ctx *fiber.Ctx) error {
	column, err := intParam(ctx, "column")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	view, err := c.ImportService.HideColumn(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id"), column)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(view)
}

// ShowAllColumns godoc
// @Summary Show hidden columns
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionView
// @Router /api/import/sessions/{id}/columns/show [post]
func (c *ImportController) ShowAllColumns(ctx *fiber.Ctx) error {
	view, err := c.ImportService.ShowAllColumns(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id"))
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(view)
}

// LoadPreview godoc
// @Summary Preview the import
// @Description Save the current mapping and load the previewed data grid
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionView
// @Failure 502 {object} map[string]interface{}
// @Router /api/import/sessions/{id}/preview [post]
func (c *ImportController) LoadPreview(ctx *fiber.Ctx) error {
	view, err := c.ImportService.LoadPreview(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id"))
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(view)
}

// EditCell godoc
// @Summary Edit a preview cell
// @Tags import
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param row path int true "Row index"
// @Param column path int true "Column index"
// @Param body body EditCellRequest true "New value"
// @Success 200 {object} SessionView
// @Router /api/import/sessions/{id}/rows/{row}/cells/{column} [put]
func (c *ImportController) EditCell(ctx *fiber.Ctx) error {
	row, err := intParam(ctx, "row")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	column, err := intParam(ctx, "column")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var req EditCellRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	view, err := c.ImportService.EditCell(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id"), row, column, *req.Value)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(view)
}

// DeleteRow godoc
// @Summary Delete a preview row
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Param row path int true "Row index"
// @Success 200 {object} SessionView
// @Router /api/import/sessions/{id}/rows/{row} [delete]
func (c *ImportController) DeleteRow(ctx *fiber.Ctx) error {
	row, err := intParam(ctx, "row")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	view, err := c.ImportService.DeleteRow(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id"), row)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(view)
}

// Validate godoc
// @Summary Check mandatory fields
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/import/sessions/{id}/validate [post]
func (c *ImportController) Validate(ctx *fiber.Ctx) error {
	if err := c.ImportService.Validate(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id")); err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"valid": true})
}

// Commit godoc
// @Summary Run the import
// @Description Validate, send the edited grid and mapping, and start the backend import
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Success 202 {object} SessionView
// @Failure 422 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/import/sessions/{id}/commit [post]
func (c *ImportController) Commit(ctx *fiber.Ctx) error {
	view, err := c.ImportService.Commit(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id"))
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.Status(fiber.StatusAccepted).JSON(view)
}

// Status godoc
// @Summary Latest import status
// @Tags import
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} ImportStatusReport
// @Failure 409 {object} map[string]interface{}
// @Router /api/import/sessions/{id}/status [get]
func (c *ImportController) Status(ctx *fiber.Ctx) error {
	report, err := c.ImportService.Status(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id"))
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(report)
}

// ExportLogs godoc
// @Summary Download import results
// @Tags import
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Session ID"
// @Success 200 {file} file
// @Router /api/import/sessions/{id}/logs/export [get]
func (c *ImportController) ExportLogs(ctx *fiber.Ctx) error {
	data, err := c.ImportService.ExportLogs(ctx.UserContext(), middleware.CurrentUserID(ctx), ctx.Params("id"))
	if err != nil {
		return writeError(ctx, err)
	}
	ctx.Set(fiber.HeaderContentType, xlsxContentType)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="import-log-%s.xlsx"`, time.Now().Format("20060102-150405")))
	return ctx.Send(data)
}

// Template godoc
// @Summary Download a blank import template
// @Tags import
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param entity path string true "Target entity"
// @Success 200 {file} file
// @Router /api/import/templates/{entity} [get]
func (c *ImportController) Template(ctx *fiber.Ctx) error {
	entity := ctx.Params("entity")
	data, err := c.ImportService.Template(ctx.UserContext(), entity)
	if err != nil {
		return writeError(ctx, err)
	}
	ctx.Set(fiber.HeaderContentType, xlsxContentType)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s-import-template.xlsx"`, utils.Slugify(entity)))
	return ctx.Send(data)
}

// Fields godoc
// @Summary Search target fields
// @Tags import
// @Produce json
// @Param entity path string true "Target entity"
// @Param q query string false "Search text"
// @Success 200 {array} TargetField
// @Router /api/import/fields/{entity} [get]
func (c *ImportController) Fields(ctx *fiber.Ctx) error {
	fields, err := c.ImportService.Fields(ctx.UserContext(), ctx.Params("entity"), ctx.Query("q"))
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(fields)
}

// History godoc
// @Summary List finished imports
// @Tags import
// @Produce json
// @Param entity query string false "Target entity"
// @Param limit query int false "Maximum entries (default 50)"
// @Success 200 {array} ImportHistory
// @Router /api/import/history [get]
func (c *ImportController) History(ctx *fiber.Ctx) error {
	var q HistoryQuery
	if err := ctx.QueryParser(&q); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid query"})
	}
	if err := validateRequest(q); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	history, err := c.ImportService.History(ctx.UserContext(), HistoryFilter{
		Entity: q.Entity,
		UserID: middleware.CurrentUserID(ctx),
		Limit:  q.Limit,
	})
	if err != nil {
		return writeError(ctx, err)
	}
	if history == nil {
		history = []ImportHistory{}
	}
	return ctx.JSON(history)
}

// AllHistory godoc
// @Summary List finished imports of every user
// @Tags import
// @Produce json
// @Param entity query string false "Target entity"
// @Param user query string false "Importing user"
// @Param limit query int false "Maximum entries (default 50)"
// @Success 200 {array} ImportHistory
// @Failure 403 {object} map[string]interface{}
// @Router /api/import/admin/history [get]
func (c *ImportController) AllHistory(ctx *fiber.Ctx) error {
	var q HistoryQuery
	if err := ctx.QueryParser(&q); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid query"})
	}
	if err := validateRequest(q); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	history, err := c.ImportService.History(ctx.UserContext(), HistoryFilter{
		Entity: q.Entity,
		UserID: q.User,
		Limit:  q.Limit,
	})
	if err != nil {
		return writeError(ctx, err)
	}
	if history == nil {
		history = []ImportHistory{}
	}
	return ctx.JSON(history)
}

// UpgradeStream only lets websocket handshakes through to StreamStatus.
func (c *ImportController) UpgradeStream(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	ctx.Locals("user_id", middleware.CurrentUserID(ctx))
	return ctx.Next()
}

// StreamStatus pushes every status report of the session's running import
// and closes once polling stops.
func (c *ImportController) StreamStatus(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	sessionID := conn.Params("id")
	log := c.Logger.With(zap.String(logger.SessionIDKey, sessionID))

	reports, unsubscribe, err := c.ImportService.Subscribe(context.Background(), userID, sessionID)
	if err != nil {
		msg, _ := json.Marshal(fiber.Map{"error": err.Error()})
		conn.WriteMessage(websocket.TextMessage, msg)
		return
	}
	defer unsubscribe()

	// Reader goroutine notices the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			log.Debug("Status stream client disconnected")
			return
		case report, ok := <-reports:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(report); err != nil {
				log.Debug("Status stream write failed", zap.Error(err))
				return
			}
		}
	}
}
