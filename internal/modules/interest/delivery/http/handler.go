package handler

import (
	"net/http"

	interestDto "anoa.com/localswap/internal/modules/interest/dto"
	interest "anoa.com/localswap/internal/modules/interest/service"
	"anoa.com/localswap/pkg/response"
	"github.com/gin-gonic/gin"
)

type InterestHandler struct {
	service interest.InterestService
}

func NewInterestHandler(service interest.InterestService) *InterestHandler {
	return &InterestHandler{service: service}
}

func (h *InterestHandler) ListInterests(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	interests, err := h.service.ListInterests(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": interests})
}

func (h *InterestHandler) AddInterest(c *gin.Context) {
	var req interestDto.InterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	saved, err := h.service.AddInterest(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, saved)
}

func (h *InterestHandler) ReplaceInterests(c *gin.Context) {
	var req interestDto.ReplaceInterestsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	interests, err := h.service.ReplaceInterests(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": interests})
}

func (h *InterestHandler) RemoveInterest(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.RemoveInterest(c.Request.Context(), userID, c.Param("category")); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Interest removed"})
}
