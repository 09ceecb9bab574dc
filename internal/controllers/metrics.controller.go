package controllers

import (
	"net/http"
	"time"

	"sysinfo/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MetricsController serves live readings straight from the metrics source
type MetricsController struct {
	source services.MetricsSource
	logger *zap.Logger
	now    func() time.Time
}

func NewMetricsController(source services.MetricsSource, logger *zap.Logger) *MetricsController {
	return &MetricsController{
		source: source,
		logger: logger.Named("metrics"),
		now:    time.Now,
	}
}

// GetData returns a fresh reading. Nothing is stored.
func (mc *MetricsController) GetData(c *gin.Context) {
	sample, err := services.Snapshot(c.Request.Context(), mc.source, mc.now())
	if err != nil {
		mc.logger.Error("Live snapshot failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if anomalies := sample.Anomalies(); len(anomalies) > 0 {
		mc.logger.Warn("Live reading outside expected ranges", zap.Strings("anomalies", anomalies))
	}
	c.JSON(http.StatusOK, sample)
}
