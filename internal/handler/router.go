package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/flicky/storefront/internal/middleware"
	"github.com/flicky/storefront/internal/service"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth      *service.AuthService
	Product   *service.ProductService
	Cart      *service.CartService
	Order     *service.OrderService
	Dashboard *service.DashboardService
}

type RouterOptions struct {
	Logger         *slog.Logger
	Latency        time.Duration
	AllowedOrigins []string
}

func NewRouter(opts RouterOptions, svc Services, health *HealthHandler) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(opts.Logger), cors.New(corsConfig(opts.AllowedOrigins)))

	router.GET("/healthz", health.Healthz)
	router.GET("/readyz", health.Readyz)

	authH := NewAuthHandler(svc.Auth)
	productH := NewProductHandler(svc.Product)
	cartH := NewCartHandler(svc.Cart)
	orderH := NewOrderHandler(svc.Order)
	adminH := NewAdminHandler(svc.Order, svc.Dashboard)
	requireAuth := middleware.AuthMiddleware(svc.Auth)

	v1 := router.Group("/api/v1", middleware.Latency(opts.Latency))
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.GET("/me", requireAuth, authH.Me)

		products := v1.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.GetByID)
		v1.GET("/categories/:category/products", productH.ListByCategory)

		adminProducts := products.Group("", requireAuth, middleware.AdminOnly())
		adminProducts.POST("", productH.Create)
		adminProducts.PUT("/:id", productH.Update)
		adminProducts.DELETE("/:id", productH.Delete)

		cart := v1.Group("/cart", requireAuth)
		cart.GET("", cartH.GetCart)
		cart.DELETE("", cartH.Clear)
		cart.POST("/items", cartH.AddItem)
		cart.PUT("/items/:productId", cartH.UpdateItem)
		cart.DELETE("/items/:productId", cartH.DeleteItem)

		orders := v1.Group("/orders", requireAuth)
		orders.POST("", orderH.CreateOrder)
		orders.GET("", orderH.ListOrders)
		orders.GET("/:id", orderH.GetOrder)

		admin := v1.Group("/admin", requireAuth, middleware.AdminOnly())
		admin.GET("/orders", adminH.ListOrders)
		admin.PATCH("/orders/:id/status", adminH.UpdateOrderStatus)
		admin.GET("/dashboard", adminH.Dashboard)
		admin.GET("/activity", adminH.Activity)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-Match"},
		ExposeHeaders:    []string{"ETag"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
