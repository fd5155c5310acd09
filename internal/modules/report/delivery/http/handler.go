package handler

import (
	"net/http"

	reportDto "anoa.com/localswap/internal/modules/report/dto"
	report "anoa.com/localswap/internal/modules/report/service"
	"anoa.com/localswap/pkg/response"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	service report.Service
}

func NewReportHandler(service report.Service) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req reportDto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	result, err := h.service.CreateReport(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
