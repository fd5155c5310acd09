package handler

import (
	"net/http"

	blockDto "anoa.com/localswap/internal/modules/block/dto"
	block "anoa.com/localswap/internal/modules/block/service"
	"anoa.com/localswap/pkg/response"
	"github.com/gin-gonic/gin"
)

type BlockHandler struct {
	service block.Service
}

func NewBlockHandler(service block.Service) *BlockHandler {
	return &BlockHandler{service: service}
}

func (h *BlockHandler) BlockUser(c *gin.Context) {
	var req blockDto.BlockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	result, err := h.service.BlockUser(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *BlockHandler) UnblockUser(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	blockedID, err := response.ParamUUID(c, "user_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.UnblockUser(c.Request.Context(), userID, blockedID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user unblocked"})
}

func (h *BlockHandler) ListBlocks(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	blocks, err := h.service.ListBlocks(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": blocks})
}
