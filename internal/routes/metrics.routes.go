package routes

import (
	"sysinfo/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterMetricsRoutes(r gin.IRoutes, metrics *controllers.MetricsController, history *controllers.HistoryController) {
	r.GET("/data", metrics.GetData)
	r.GET("/logs", history.GetLogs)
}
