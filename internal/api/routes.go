package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func SetupRoutes(app *fiber.App, handler *Handler) {
	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} ${pid} ${locals:requestid} ${status} - ${method} ${path}\n",
		TimeFormat: time.RFC3339,
	}))

	api := app.Group("/api/v1")

	api.Get("/health", handler.GetHealth)
	api.Get("/scheduler", handler.GetScheduler)
	api.Post("/update", handler.TriggerUpdate)
	api.Get("/history", handler.GetHistory)

	accessories := api.Group("/accessories")
	accessories.Get("/", handler.GetAccessories)
	accessories.Get("/:id", handler.GetAccessory)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
			"path":  c.Path(),
		})
	})
}
