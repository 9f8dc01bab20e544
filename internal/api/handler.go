package api

import (
	"errors"
	"time"

	"github.com/bobby-s-dev/weather-plus/internal/accessory"
	"github.com/bobby-s-dev/weather-plus/internal/history"
	"github.com/bobby-s-dev/weather-plus/internal/models"
	"github.com/bobby-s-dev/weather-plus/internal/scheduler"
	"github.com/bobby-s-dev/weather-plus/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultHistoryWindow = 24 * time.Hour

var validate = validator.New()

type UpdateScheduler interface {
	Status() scheduler.Status
	ForceRun() bool
}

type HistoryScheduler interface {
	Status() scheduler.HistoryStatus
}

// Dependencies are the components the handler reads from.
// History and HistoryScheduler may be nil.
type Dependencies struct {
	Registry         *accessory.Registry
	Updater          *services.Updater
	History          history.Reader
	Scheduler        UpdateScheduler
	HistoryScheduler HistoryScheduler
}

type Handler struct {
	deps    Dependencies
	logger  *zap.Logger
	started time.Time
}

func NewHandler(deps Dependencies, logger *zap.Logger) *Handler {
	return &Handler{
		deps:    deps,
		logger:  logger,
		started: time.Now(),
	}
}

type accessoryView struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Kind        string                 `json:"kind"`
	Day         *int                   `json:"day,omitempty"`
	Information accessory.Information  `json:"information"`
	Fields      []models.Field         `json:"fields"`
	Values      map[string]interface{} `json:"values"`
	UpdatedAt   *time.Time             `json:"updated_at,omitempty"`
	History     bool                   `json:"history"`
}

func newAccessoryView(a *accessory.Accessory) accessoryView {
	view := accessoryView{
		ID:          a.ID.String(),
		Name:        a.Name,
		Kind:        a.Variant.Kind.String(),
		Information: a.Info(),
		Fields:      a.Fields,
		Values:      a.Sensor.Values(),
		History:     a.History != nil,
	}
	if a.Variant.Kind == accessory.KindForecast {
		day := a.Variant.Day
		view.Day = &day
	}
	if updated := a.Sensor.LastUpdated(); !updated.IsZero() {
		view.UpdatedAt = &updated
	}
	return view
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	stats := h.deps.Updater.Stats()
	provider := h.deps.Updater.Provider()

	return c.JSON(fiber.Map{
		"status":      "healthy",
		"timestamp":   time.Now(),
		"uptime":      time.Since(h.started).String(),
		"provider":    provider.Name(),
		"attribution": provider.Attribution(),
		"last_fetch":  stats.LastFetch,
		"stats":       stats,
	})
}

// GetAccessories handles GET /api/v1/accessories
func (h *Handler) GetAccessories(c *fiber.Ctx) error {
	accessories := h.deps.Registry.Accessories()

	views := make([]accessoryView, 0, len(accessories))
	for _, a := range accessories {
		views = append(views, newAccessoryView(a))
	}

	return c.JSON(fiber.Map{
		"accessories": views,
		"count":       len(views),
	})
}

// GetAccessory handles GET /api/v1/accessories/:id
func (h *Handler) GetAccessory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid accessory id")
	}

	a, ok := h.deps.Registry.ByID(id)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Accessory not found")
	}

	return c.JSON(newAccessoryView(a))
}

type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

// GetHistory handles GET /api/v1/history
func (h *Handler) GetHistory(c *fiber.Ctx) error {
	if h.deps.History == nil {
		return fiber.NewError(fiber.StatusNotFound, "History is not enabled")
	}

	q := historyQuery{To: time.Now()}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Parameter 'to' must be an RFC3339 timestamp")
		}
		q.To = t
	}
	q.From = q.To.Add(-defaultHistoryWindow)
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Parameter 'from' must be an RFC3339 timestamp")
		}
		q.From = t
	}

	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Parameter 'to' must not be before 'from'")
	}

	records, err := h.deps.History.Range(q.From, q.To)
	if errors.Is(err, history.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "No history records in range")
	}
	if err != nil {
		h.logger.Error("Failed to read history", zap.Error(err))
		return err
	}

	return c.JSON(fiber.Map{
		"from":    q.From,
		"to":      q.To,
		"count":   len(records),
		"records": records,
	})
}

// GetScheduler handles GET /api/v1/scheduler
func (h *Handler) GetScheduler(c *fiber.Ctx) error {
	response := fiber.Map{
		"update": h.deps.Scheduler.Status(),
	}
	if h.deps.HistoryScheduler != nil {
		response["history"] = h.deps.HistoryScheduler.Status()
	}
	return c.JSON(response)
}

// TriggerUpdate handles POST /api/v1/update
func (h *Handler) TriggerUpdate(c *fiber.Ctx) error {
	if !h.deps.Scheduler.ForceRun() {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Scheduler is not running")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "update queued",
	})
}

// ErrorHandler renders errors as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	if code >= fiber.StatusInternalServerError {
		zap.L().Error("HTTP error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   err.Error(),
		"success": false,
	})
}
