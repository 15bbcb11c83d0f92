package records

import (
	"errors"

	"record-manager/core/collection"
	"record-manager/core/dataservice"
	"record-manager/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// defaultWindow is the window size when the request gives no count.
const defaultWindow = 20

// Handler handles HTTP requests for records.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the records routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/records")
	group.Get("/", h.HandleWindow)
	group.Get("/stats", h.HandleStats)
	group.Post("/sort", h.HandleSort)
	group.Get("/:id", h.HandleGet)
	group.Post("/", h.HandleCreate)
	group.Patch("/:id", h.HandleUpdate)
	group.Delete("/:id", h.HandleDelete)
}

// HandleWindow returns a window of records.
// @Summary Get Records Window
// @Description Materialize and return records in [start, start+count), fetching missing pages from the data service.
// @Tags records
// @Produce json
// @Param start query int false "First index" default(0)
// @Param count query int false "Window size" default(20)
// @Success 200 {object} WindowResponse "Window"
// @Failure 502 {object} map[string]string "Data service failure"
// @Router /records [get]
func (h *Handler) HandleWindow(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	start := c.QueryInt("start", 0)
	count := c.QueryInt("count", defaultWindow)
	if start < 0 || count < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start and count must not be negative"})
	}

	w, err := h.service.Window(c.Context(), start, count)
	if err != nil {
		return h.fail(c, l, "Window failed", err)
	}
	return c.JSON(w)
}

// HandleStats returns collection statistics.
// @Summary Get Collection Stats
// @Description Length, materialized count, LRU size, pending tasks and paging state.
// @Tags records
// @Produce json
// @Success 200 {object} collection.Stats "Stats"
// @Router /records/stats [get]
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	return c.JSON(h.service.Stats())
}

// HandleSort changes the collection order.
// @Summary Sort Records
// @Description Order by a comma separated field list. An empty list clears the order.
// @Tags records
// @Produce json
// @Param by query string false "Fields (e.g. 'name,score')"
// @Param dir query string false "asc or desc" default(asc)
// @Success 200 {object} collection.Stats "Stats after sorting"
// @Failure 400 {object} map[string]string "Invalid direction"
// @Router /records/sort [post]
func (h *Handler) HandleSort(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	if err := h.service.Sort(c.Context(), c.Query("by"), c.Query("dir")); err != nil {
		return h.fail(c, l, "Sort failed", err)
	}
	return c.JSON(h.service.Stats())
}

// HandleGet returns one record.
// @Summary Get Record
// @Description Return a resident record or fetch it from the data service.
// @Tags records
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} map[string]interface{} "Record"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /records/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	rec, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, l, "Lookup failed", err)
	}
	return c.JSON(rec)
}

// HandleCreate creates a record.
// @Summary Create Record
// @Description Create a record in the data service and add it to the collection.
// @Tags records
// @Accept json
// @Produce json
// @Param record body map[string]interface{} true "Attributes"
// @Success 201 {object} map[string]interface{} "Created record"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 409 {object} map[string]string "Conflict"
// @Failure 422 {object} map[string]string "Validation failed"
// @Router /records [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	var attrs map[string]any
	if err := c.BodyParser(&attrs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	rec, err := h.service.Create(c.Context(), attrs)
	if err != nil {
		return h.fail(c, l, "Create failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// HandleUpdate applies fields to a record and saves it.
// @Summary Update Record
// @Description Apply the given fields and save the record.
// @Tags records
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param fields body map[string]interface{} true "Changed fields"
// @Success 200 {object} map[string]interface{} "Updated record"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 422 {object} map[string]string "Validation failed"
// @Router /records/{id} [patch]
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	var fields map[string]any
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	rec, err := h.service.Update(c.Context(), c.Params("id"), fields)
	if err != nil {
		return h.fail(c, l, "Update failed", err)
	}
	return c.JSON(rec)
}

// HandleDelete destroys a record.
// @Summary Delete Record
// @Description Delete the record from the data service and the collection.
// @Tags records
// @Param id path string true "Record ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /records/{id} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return h.fail(c, l, "Delete failed", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Debug(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// statusFor maps collection and data service errors to HTTP status codes.
func statusFor(err error) int {
	var verr *collection.ValidationError
	var terr *collection.TransportError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, collection.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, collection.ErrUnsupportedMode), errors.Is(err, dataservice.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, dataservice.ErrUnknownField), errors.Is(err, errInvalidInput):
		return fiber.StatusBadRequest
	case errors.As(err, &terr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
