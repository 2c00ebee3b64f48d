package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the API routes and middleware
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware())

	router.GET("/health", h.Health)

	api := router.Group("/api/v1")
	{
		api.GET("/work-orders", h.ListWorkOrders)
		api.POST("/reports", h.SubmitReport)
		api.GET("/reports", h.ListReportRecords)
		api.GET("/reports/export", h.ExportReportRecords)
		api.GET("/reports/history", h.ListHistory)
	}

	return router
}
