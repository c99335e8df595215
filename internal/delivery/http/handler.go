package http

import (
	"net/http"

	"fulfillment-engine/internal/models"
	"fulfillment-engine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	svc service.Engine
}

func NewHandler(s service.Engine) *Handler {
	return &Handler{svc: s}
}

type getAllOrdersResponse struct {
	Data []models.OrderProjection `json:"data"`
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.Default()

	api := router.Group("/api")
	{
		api.GET("/order/:number", h.GetOrderByNumber)
		api.GET("/order/db/:number", h.GetDbOrderByNumber)
		api.GET("/order/:number/submissions", h.GetSubmissions)
		api.POST("/order/:number/holds/:id/clear", h.ClearHold)
		api.GET("/orders", h.GetAllOrders)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
