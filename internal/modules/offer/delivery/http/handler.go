package handler

import (
	"context"
	"net/http"

	"anoa.com/localswap/internal/entity"
	offerDto "anoa.com/localswap/internal/modules/offer/dto"
	offer "anoa.com/localswap/internal/modules/offer/service"
	"anoa.com/localswap/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OfferHandler struct {
	service offer.Service
}

func NewOfferHandler(service offer.Service) *OfferHandler {
	return &OfferHandler{service: service}
}

func (h *OfferHandler) CreateOffer(c *gin.Context) {
	var req offerDto.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	created, err := h.service.CreateOffer(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *OfferHandler) ListOffers(c *gin.Context) {
	var query offerDto.ListOffersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	offers, err := h.service.ListOffers(c.Request.Context(), userID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": offers})
}

func (h *OfferHandler) GetOffer(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	detail, err := h.service.GetOffer(c.Request.Context(), userID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// respond runs a body-less transition on the offer named in the path.
func (h *OfferHandler) respond(c *gin.Context, fn func(ctx context.Context, userID, offerID uuid.UUID) (*entity.Offer, error)) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	updated, err := fn(c.Request.Context(), userID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *OfferHandler) AcceptOffer(c *gin.Context) {
	h.respond(c, h.service.AcceptOffer)
}

func (h *OfferHandler) DeclineOffer(c *gin.Context) {
	h.respond(c, h.service.DeclineOffer)
}

func (h *OfferHandler) CounterOffer(c *gin.Context) {
	var req offerDto.CounterOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	h.respond(c, func(ctx context.Context, userID, offerID uuid.UUID) (*entity.Offer, error) {
		return h.service.CounterOffer(ctx, userID, offerID, req)
	})
}

func (h *OfferHandler) ScheduleMeetup(c *gin.Context) {
	var req offerDto.ScheduleMeetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	h.respond(c, func(ctx context.Context, userID, offerID uuid.UUID) (*entity.Offer, error) {
		return h.service.ScheduleMeetup(ctx, userID, offerID, req)
	})
}

func (h *OfferHandler) CompleteOffer(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.CompleteOffer(c.Request.Context(), userID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
