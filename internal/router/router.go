package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"bankcards/internal/auth"
	"bankcards/internal/handler"
	"bankcards/internal/logging"
)

// Handlers groups the HTTP handlers served under /api.
type Handlers struct {
	Cards     *handler.CardHandler
	Transfers *handler.TransferHandler
	Sweeps    *handler.SweepHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, jwtService *auth.JWTService, log logrus.FieldLogger, h Handlers) {
	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(log))
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Secured routes (require JWT authentication)
	secured := api.Group("", jwtService.Middleware())
	adminOnly := auth.RequireRole(auth.RoleAdmin)
	anyRole := auth.RequireRole(auth.RoleAdmin, auth.RoleUser)

	// Card routes
	secured.POST("/cards", h.Cards.CreateCard, adminOnly)
	secured.GET("/cards/:id", h.Cards.GetCard, anyRole)
	secured.GET("/cards/:id/balance", h.Cards.GetBalance, anyRole)
	secured.PATCH("/cards/:id/status", h.Cards.ChangeStatus, adminOnly)
	secured.DELETE("/cards/:id", h.Cards.DeleteCard, adminOnly)
	secured.GET("/users/:userId/cards", h.Cards.ListUserCards, anyRole)

	// Transfer routes
	secured.POST("/transactions", h.Transfers.Transfer, anyRole)
	secured.GET("/transactions/:cardNumber", h.Transfers.ListCardTransactions, anyRole)

	// Admin routes
	secured.POST("/admin/sweeps", h.Sweeps.RunSweep, adminOnly)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
