package http

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/hmtran/clothes-shop/internal/cache"
	"github.com/hmtran/clothes-shop/internal/events"
	"github.com/hmtran/clothes-shop/internal/handlers"
	"github.com/hmtran/clothes-shop/internal/handlers/cart"
	"github.com/hmtran/clothes-shop/internal/mailer"
	"github.com/hmtran/clothes-shop/internal/service"
	"github.com/hmtran/clothes-shop/internal/storage"
)

// Validator adapts go-playground/validator to echo's Validator interface.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// Deps carries everything the routes need. Producer, Cache, ES, Mailer and
// Storage may be nil; the handlers degrade to running without them.
type Deps struct {
	DB       *gorm.DB
	Tokens   *service.TokenService
	Producer *events.Producer
	Cache    *cache.ProductCache
	ES       *elasticsearch.Client
	ESIndex  string
	Mailer   *mailer.Mailer
	Storage  storage.Storage
}

// Register wires every route onto the echo instance.
func Register(e *echo.Echo, d Deps) {
	e.Validator = NewValidator()

	authH := &handlers.AuthHandler{DB: d.DB, Tokens: d.Tokens, Producer: d.Producer}
	categoryH := &handlers.CategoryHandler{DB: d.DB}
	productH := &handlers.ProductHandler{DB: d.DB, Producer: d.Producer, Cache: d.Cache, ES: d.ES, ESIndex: d.ESIndex}
	cartH := &cart.CartHandler{DB: d.DB, Producer: d.Producer, JWTSecret: d.Tokens.JWTSecret}
	orderH := &handlers.OrderHandler{
		DB:        d.DB,
		Svc:       &service.OrderService{DB: d.DB},
		Producer:  d.Producer,
		Mailer:    d.Mailer,
		JWTSecret: d.Tokens.JWTSecret,
	}
	userH := &handlers.UserHandler{DB: d.DB, JWTSecret: d.Tokens.JWTSecret}
	searchH := &handlers.SearchHandler{ES: d.ES, Index: d.ESIndex}
	uploadH := &handlers.UploadHandler{Storage: d.Storage}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	api := e.Group("/api")
	auth := d.Tokens.AutoRefreshMiddleware
	admin := d.Tokens.AutoRefreshMiddlewareAdmin

	// auth
	api.POST("/auth/register", authH.Register)
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/admin/login", authH.AdminLogin)
	api.POST("/auth/refresh", authH.Refresh)
	api.POST("/auth/logout", authH.Logout)

	// catalog, public reads
	api.GET("/categories", categoryH.List)
	api.GET("/categories/:id", categoryH.Get)
	api.GET("/products", productH.List)
	api.GET("/products/:id", productH.Get)
	api.GET("/products/slug/:slug", productH.GetBySlug)
	api.GET("/products/category/:name", productH.ListByCategory)
	api.GET("/products/:id/variants", productH.ListVariants)
	api.GET("/search", searchH.Search)

	// catalog, admin writes
	api.POST("/categories", categoryH.Create, admin)
	api.PUT("/categories/:id", categoryH.Update, admin)
	api.DELETE("/categories/:id", categoryH.Delete, admin)
	api.POST("/products", productH.Create, admin)
	api.PUT("/products/:id", productH.Update, admin)
	api.DELETE("/products/:id", productH.Delete, admin)
	api.POST("/products/:id/variants", productH.CreateVariant, admin)
	api.PUT("/products/variants/:id", productH.UpdateVariant, admin)
	api.DELETE("/products/variants/:id", productH.DeleteVariant, admin)
	api.POST("/upload", uploadH.Upload, admin)

	// cart
	api.GET("/cart", cartH.GetCart, auth)
	api.POST("/cart", cartH.AddToCart, auth)
	api.PUT("/cart/:id/quantity", cartH.UpdateQuantity, auth)
	api.DELETE("/cart/:id", cartH.DeleteFromCart, auth)
	api.DELETE("/cart", cartH.ClearCart, auth)

	// orders
	api.POST("/orders", orderH.PlaceOrder, auth)
	api.GET("/orders", orderH.ListOrders, admin)
	api.GET("/orders/user/:id", orderH.ListUserOrders, auth)
	api.GET("/orders/:id", orderH.GetOrder, auth)
	api.PUT("/orders/:id", orderH.UpdateOrder, admin)
	api.DELETE("/orders/:id", orderH.DeleteOrder, admin)
	api.PATCH("/orders/:id/status", orderH.UpdateStatus, admin)
	api.PATCH("/orders/:id/cancel", orderH.Cancel, auth)

	// users
	api.GET("/users", userH.List, admin)
	api.GET("/users/:id", userH.Get, auth)
	api.PUT("/users/:id", userH.Update, auth)
	api.DELETE("/users/:id", userH.Delete, admin)
	api.POST("/users/:id/addresses", userH.AddAddress, auth)
}
