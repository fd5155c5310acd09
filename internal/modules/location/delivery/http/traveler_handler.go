package handler

import (
	"net/http"

	locationDto "anoa.com/localswap/internal/modules/location/dto"
	location "anoa.com/localswap/internal/modules/location/service"
	"anoa.com/localswap/pkg/response"
	"github.com/gin-gonic/gin"
)

type TravelerHandler struct {
	service location.TravelerService
}

func NewTravelerHandler(service location.TravelerService) *TravelerHandler {
	return &TravelerHandler{service: service}
}

func (h *TravelerHandler) GetTraveler(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	profile, err := h.service.GetTraveler(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *TravelerHandler) ActivateTraveler(c *gin.Context) {
	var req locationDto.ActivateTravelerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	profile, err := h.service.ActivateTraveler(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}

func (h *TravelerHandler) UpdateTraveler(c *gin.Context) {
	var req locationDto.UpdateTravelerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	profile, err := h.service.UpdateTraveler(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *TravelerHandler) DeactivateTraveler(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeactivateTraveler(c.Request.Context(), userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "traveler mode turned off"})
}
