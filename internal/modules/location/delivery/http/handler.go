package handler

import (
	"net/http"

	locationDto "anoa.com/localswap/internal/modules/location/dto"
	location "anoa.com/localswap/internal/modules/location/service"
	"anoa.com/localswap/pkg/response"
	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	service location.Service
}

func NewLocationHandler(service location.Service) *LocationHandler {
	return &LocationHandler{service: service}
}

func (h *LocationHandler) SetLocation(c *gin.Context) {
	var req locationDto.SetLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	loc, err := h.service.SetLocation(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, loc)
}

func (h *LocationHandler) ListLocations(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	locations, err := h.service.ListLocations(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": locations})
}
