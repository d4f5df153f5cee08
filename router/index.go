package router

import (
	"net/http"
	"storefront/handler"
	"storefront/middleware"
	"storefront/service"
	"storefront/validate"
	"storefront/views"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewApp builds the fiber app with the embedded page templates.
func NewApp() *fiber.App {
	engine := html.NewFileSystem(http.FS(views.FS), ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
	})
	app.Use(recover.New())
	return app
}

func SetupRoutes(app *fiber.App, h *handler.Handler, jwtSecret []byte, customers service.CustomerRepo) {
	app.Get("/healthz", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	web := []fiber.Handler{
		logger.New(),
		middleware.Session(),
		middleware.OptionalJWT(jwtSecret),
		middleware.OptionalAuth(customers),
	}

	payment := app.Group("/payment", web...)
	payment.Post("/create-order", validate.CreateOrder(), h.CreateOrder)
	payment.Post("/verify", validate.VerifyPayment(), h.VerifyPayment)

	customer := app.Group("/customer", web...)
	customer.Get("/orders", h.GetMyOrders)

	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1")
	v1.Get("/orders", middleware.Protected(jwtSecret), middleware.OptionalAuth(customers), h.ListMyOrders)

	ws := app.Group("/ws", handler.RequireUpgrade)
	ws.Get("/admin/orders", middleware.Protected(jwtSecret), middleware.AdminOnly(), h.AdminOrderFeed())
}
