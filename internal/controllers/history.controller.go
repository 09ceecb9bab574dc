package controllers

import (
	"net/http"

	"sysinfo/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HistoryController serves the stored sample log
type HistoryController struct {
	store  services.SampleReader
	logger *zap.Logger
}

func NewHistoryController(store services.SampleReader, logger *zap.Logger) *HistoryController {
	return &HistoryController{
		store:  store,
		logger: logger.Named("history"),
	}
}

// GetLogs returns every stored sample, newest first, with no pagination
func (hc *HistoryController) GetLogs(c *gin.Context) {
	samples, err := hc.store.ReadAll(c.Request.Context())
	if err != nil {
		hc.logger.Error("Reading history failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, samples)
}
