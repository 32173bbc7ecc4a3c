package analysis

import (
	"errors"

	"spring-change/core/logger"
	"spring-change/core/schema"
	"spring-change/core/storage"
	"spring-change/core/utils"
	"spring-change/core/workbook"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the analysis workflow.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the analysis routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/analysis")
	group.Post("/sessions", h.HandleCreateSession)
	group.Get("/sessions/:id", h.HandleGetSession)
	group.Post("/sessions/:id/files/:side", h.HandleUpload)
	group.Post("/sessions/:id/analyze", h.HandleAnalyze)
	group.Get("/sessions/:id/overview", h.HandleOverview)
	group.Get("/sessions/:id/results", h.HandleResults)
	group.Get("/sessions/:id/export", h.HandleExport)
	group.Put("/sessions/:id/step/:step", h.HandleNavigate)
	group.Get("/runs", h.HandleRuns)
	group.Get("/runs/:id/report", h.HandleArchivedReport)
}

// HandleCreateSession starts a new analysis session.
// Query: type=VP|VU (defaults to the configured schema).
func (h *Handler) HandleCreateSession(c *fiber.Ctx) error {
	st, err := h.service.CreateSession(c.Query("type"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(st)
}

// HandleGetSession returns the session status and step completion.
func (h *Handler) HandleGetSession(c *fiber.Ctx) error {
	st, err := h.service.Session(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(st)
}

// HandleUpload ingests the old or new PTA workbook from the multipart field "file".
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	side, err := ParseSide(c.Params("side"))
	if err != nil {
		return h.fail(c, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return h.fail(c, &workbook.FileError{Label: string(side), Err: workbook.ErrNoFile})
	}

	f, err := fh.Open()
	if err != nil {
		l.Error("Failed to open upload", zap.Error(err))
		return h.fail(c, &workbook.FileError{Label: string(side), Err: err})
	}
	defer f.Close()

	st, err := h.service.Upload(c.Context(), c.Params("id"), side, fh.Filename, f)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "'" + string(side) + "' file uploaded successfully!",
		"session": st,
	})
}

// HandleAnalyze runs the reconciliation and metrics for a session.
func (h *Handler) HandleAnalyze(c *fiber.Ctx) error {
	res, err := h.service.Analyze(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleOverview returns the metrics of the last analysis.
func (h *Handler) HandleOverview(c *fiber.Ctx) error {
	res, err := h.service.Overview(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleResults returns the reconciled table.
// Query: offset, limit (0 returns every row).
func (h *Handler) HandleResults(c *fiber.Ctx) error {
	offset := utils.ToInt(c.Query("offset"))
	limit := utils.ToInt(c.Query("limit"))

	page, err := h.service.Results(c.Params("id"), offset, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(page)
}

// HandleExport downloads the styled Excel report.
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	data, err := h.service.Export(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return sendWorkbook(c, ExportFileName, data)
}

// HandleNavigate moves the session to another workflow step.
func (h *Handler) HandleNavigate(c *fiber.Ctx) error {
	step, err := ParseStep(c.Params("step"))
	if err != nil {
		return h.fail(c, err)
	}
	st, err := h.service.Navigate(c.Params("id"), step)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(st)
}

// HandleRuns lists persisted analysis runs.
// Query: limit, offset.
func (h *Handler) HandleRuns(c *fiber.Ctx) error {
	runs, err := h.service.Runs(c.Context(), utils.ToInt(c.Query("limit")), utils.ToInt(c.Query("offset")))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"runs": runs})
}

// HandleArchivedReport downloads an archived report by run id.
func (h *Handler) HandleArchivedReport(c *fiber.Ctx) error {
	id := c.Params("id")
	data, err := h.service.ArchivedReport(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return sendWorkbook(c, id+".xlsx", data)
}

func sendWorkbook(c *fiber.Ctx, name string, data []byte) error {
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Attachment(name)
	return c.Send(data)
}

// fail maps service errors onto HTTP status codes.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	l := logger.WithRayID(h.service.logger, c)

	var fileErr *workbook.FileError
	status := fiber.StatusInternalServerError
	switch {
	case errors.As(err, &fileErr),
		errors.Is(err, ErrUnsupportedFile),
		errors.Is(err, ErrFileTooLarge),
		errors.Is(err, ErrInvalidSide),
		errors.Is(err, ErrInvalidStep),
		errors.Is(err, schema.ErrUnknownType),
		errors.Is(err, storage.ErrInvalidReportID):
		status = fiber.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, storage.ErrReportNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrStepIncomplete):
		status = fiber.StatusConflict
	case errors.Is(err, ErrHistoryDisabled):
		status = fiber.StatusServiceUnavailable
	}

	if status == fiber.StatusInternalServerError {
		l.Error("Analysis request failed", zap.String("path", c.Path()), zap.Error(err))
	} else {
		l.Debug("Analysis request rejected", zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
