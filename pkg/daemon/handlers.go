package daemon

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlie0129/recal/pkg/config"
	"github.com/charlie0129/recal/pkg/recalibration"
	"github.com/charlie0129/recal/pkg/version"
)

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func postRecalibrate(c *gin.Context) {
	var req recalibration.Request
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	id, err := enqueue(req, sourceAPI)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, recalibration.ErrInvalidRequest):
			status = http.StatusBadRequest
		case errors.Is(err, ErrQueueFull):
			status = http.StatusServiceUnavailable
		}
		c.IndentedJSON(status, err.Error())
		_ = c.AbortWithError(status, err)
		return
	}

	c.IndentedJSON(http.StatusAccepted, gin.H{"id": id})
}

func getStatus(c *gin.Context) {
	if recalHandler == nil {
		c.IndentedJSON(http.StatusOK, recalibration.Run{Phase: recalibration.PhaseIdle})
		return
	}
	c.IndentedJSON(http.StatusOK, recalHandler.Status())
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
