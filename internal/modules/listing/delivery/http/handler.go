package handler

import (
	"fmt"
	"net/http"

	listingDto "anoa.com/localswap/internal/modules/listing/dto"
	listing "anoa.com/localswap/internal/modules/listing/service"
	"anoa.com/localswap/pkg/apperror"
	"anoa.com/localswap/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxPhotoBytes = 10 << 20

type ListingHandler struct {
	service listing.Service
	logger  *zap.Logger
}

func NewListingHandler(service listing.Service, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{service: service, logger: logger}
}

func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req listingDto.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	created, err := h.service.CreateListing(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *ListingHandler) GetListing(c *gin.Context) {
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

	found, err := h.service.GetListing(c.Request.Context(), userID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, found)
}

func (h *ListingHandler) ListMyListings(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	listings, err := h.service.ListMyListings(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": listings})
}

func (h *ListingHandler) SearchListings(c *gin.Context) {
	var query listingDto.SearchListingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	result, err := h.service.SearchListings(c.Request.Context(), userID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ListingHandler) AddPhotos(c *gin.Context) {
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

	form, err := c.MultipartForm()
	if err != nil {
		response.ResponseError(c, fmt.Errorf("photos are required: %w", apperror.ErrBadRequest))
		return
	}
	headers := form.File["photos"]

	files := make([]listingDto.PhotoFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxPhotoBytes {
			response.ResponseError(c, fmt.Errorf("%s is larger than 10MB: %w", fh.Filename, apperror.ErrInvalidInput))
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.ResponseError(c, fmt.Errorf("failed to read %s: %w", fh.Filename, apperror.ErrBadRequest))
			return
		}
		defer f.Close()
		files = append(files, listingDto.PhotoFile{Reader: f, Size: fh.Size, FileName: fh.Filename})
	}

	res, err := h.service.AddPhotos(c.Request.Context(), userID, id, files)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *ListingHandler) DeletePhoto(c *gin.Context) {
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
	photoID, err := response.ParamUUID(c, "photo_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeletePhoto(c.Request.Context(), userID, id, photoID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Photo deleted"})
}

func (h *ListingHandler) UpdateListing(c *gin.Context) {
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

	var req listingDto.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	listing, err := h.service.UpdateListing(c.Request.Context(), userID, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

func (h *ListingHandler) DeleteListing(c *gin.Context) {
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

	if err := h.service.DeleteListing(c.Request.Context(), userID, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	h.logger.Info("listing deleted", zap.String("listing_id", id.String()), zap.String("owner_id", userID.String()))
	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted"})
}
