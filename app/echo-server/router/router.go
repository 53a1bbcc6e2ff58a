package router

import (
	"myJara/internal/rest"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupUserRoutes(api *echo.Group, handler *rest.UserHandler, authRequired echo.MiddlewareFunc) {
	users := api.Group("/users", authRequired)

	users.GET("/me", handler.GetMe)
	users.PUT("/me", handler.UpdateMe)
}

func SetupProductRoutes(api *echo.Group, handler *rest.ProductHandler, authRequired echo.MiddlewareFunc) {
	products := api.Group("/products")

	products.GET("/search", handler.Search)
	products.GET("/:id", handler.GetProductByID)
	products.POST("", handler.CreateProduct, authRequired)
	products.PUT("/:id", handler.UpdateProduct, authRequired)
	products.DELETE("/:id", handler.DeleteProduct, authRequired)
}

func SetupCategoryRoutes(api *echo.Group, handler *rest.CategoryHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	categories := api.Group("/categories")

	categories.GET("", handler.GetAllCategories)
	categories.GET("/:id", handler.GetCategoryByID)
	categories.POST("", handler.CreateCategory, authRequired, adminOnly)
	categories.DELETE("/:id", handler.DeleteCategory, authRequired, adminOnly)
}

func SetupStoreRoutes(api *echo.Group, handler *rest.StoreHandler, authRequired echo.MiddlewareFunc) {
	stores := api.Group("/stores")

	stores.POST("", handler.RegisterStore, authRequired)
	stores.GET("/me", handler.GetMyStore, authRequired)
	stores.GET("/:id", handler.GetStore)
}

func SetupChatRoutes(api *echo.Group, handler *rest.ChatHandler, authRequired echo.MiddlewareFunc) {
	rooms := api.Group("/chat/rooms", authRequired)

	rooms.GET("", handler.ListRooms)
	rooms.POST("", handler.OpenRoom)
	rooms.GET("/:id/messages", handler.ListMessages)
	rooms.POST("/:id/messages", handler.SendMessage)
	rooms.POST("/:id/read", handler.MarkRead)
	rooms.GET("/:id/ws", handler.Stream)
}

func SetupOpsRoutes(e *echo.Echo, version string) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
