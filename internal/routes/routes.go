package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/satmi-commerce/service-returns/internal/handlers"
	"github.com/satmi-commerce/service-returns/internal/middleware"
)

// RouteConfig holds configuration for routes
type RouteConfig struct {
	OrderHandler  *handlers.OrderHandler
	ReturnHandler *handlers.ReturnHandler

	// StorefrontToken gates the customer-facing endpoints.
	StorefrontToken string
	// JWTSecret validates staff tokens.
	JWTSecret string
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *RouteConfig) {
	v1 := router.Group("/api/v1")

	// Storefront routes: called by the customer-facing collaborator after
	// it has verified the customer's identity.
	storefront := v1.Group("/storefront")
	storefront.Use(middleware.StorefrontAuth(cfg.StorefrontToken))
	{
		storefront.POST("/orders/lookup", cfg.OrderHandler.LookupOrders)
		storefront.POST("/returns", cfg.ReturnHandler.Submit)
	}

	// Staff routes: require an authenticated dashboard user.
	admin := v1.Group("/admin")
	admin.Use(middleware.StaffAuth(cfg.JWTSecret))
	admin.Use(middleware.RequireStaff())
	{
		admin.GET("/orders/:number", cfg.OrderHandler.GetOrderByNumber)

		returnsGroup := admin.Group("/returns")
		{
			returnsGroup.GET("", cfg.ReturnHandler.List)
			returnsGroup.GET("/:id", cfg.ReturnHandler.Get)
			returnsGroup.POST("/:id/approve", cfg.ReturnHandler.Approve)
			returnsGroup.POST("/:id/reject", cfg.ReturnHandler.Reject)
			returnsGroup.POST("/:id/label", cfg.ReturnHandler.FetchLabel)
		}
	}
}
