package jobs

import (
	"net/http"

	"anoa.com/localswap/pkg/response"
	"github.com/gin-gonic/gin"
)

type CronHandler struct {
	scheduler *Scheduler
}

func NewCronHandler(scheduler *Scheduler) *CronHandler {
	return &CronHandler{scheduler: scheduler}
}

func (h *CronHandler) RunJob(c *gin.Context) {
	result, err := h.scheduler.RunByName(c.Request.Context(), c.Param("job"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": c.Param("job"), "data": result})
}

func (h *CronHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.scheduler.Jobs()})
}
