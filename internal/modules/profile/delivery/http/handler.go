package handler

import (
	"fmt"
	"net/http"

	profileDto "anoa.com/localswap/internal/modules/profile/dto"
	profile "anoa.com/localswap/internal/modules/profile/service"
	"anoa.com/localswap/pkg/apperror"
	"anoa.com/localswap/pkg/response"
	"github.com/gin-gonic/gin"
)

const maxAvatarBytes = 5 << 20

type ProfileHandler struct {
	profileService profile.ProfileService
}

func NewProfileHandler(profileService profile.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

func (h *ProfileHandler) GetPublicProfile(c *gin.Context) {
	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.profileService.GetPublicProfile(c.Request.Context(), viewerID, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) GetCurrentProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	user, err := h.profileService.GetCurrentProfile(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input profileDto.UpdateProfileRequest
	if err := c.ShouldBind(&input); err != nil {
		response.ResponseError(c, err)
		return
	}

	var avatar *profileDto.AvatarFile
	if fileHeader, err := c.FormFile("avatar"); err == nil && fileHeader != nil {
		if fileHeader.Size > maxAvatarBytes {
			response.ResponseError(c, fmt.Errorf("avatar is larger than 5MB: %w", apperror.ErrInvalidInput))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			response.ResponseError(c, fmt.Errorf("failed to read avatar: %w", apperror.ErrBadRequest))
			return
		}
		defer file.Close()

		avatar = &profileDto.AvatarFile{
			Reader:   file,
			Size:     fileHeader.Size,
			FileName: fileHeader.Filename,
		}
	}

	user, err := h.profileService.UpdateProfile(c.Request.Context(), userID, input, avatar)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
