package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sosmed/models"
	"sosmed/storage"
	"sosmed/utils"
)

// ProfileController serves and updates the authenticated user's profile.
type ProfileController struct {
	db    *gorm.DB
	blobs storage.BlobStore
}

// NewProfileController creates a ProfileController.
func NewProfileController(db *gorm.DB, blobs storage.BlobStore) *ProfileController {
	return &ProfileController{db: db, blobs: blobs}
}

// Show returns the current user's profile.
func (p *ProfileController) Show(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	var user models.User
	if err := p.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "user not found")
		return
	}

	utils.Success(ctx, "profile retrieved", user)
}

// Update changes the user's name and/or profile photo. A new photo replaces
// the old blob; the old one is deleted first, so a failed store can leave the
// profile without a photo.
func (p *ProfileController) Update(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	var user models.User
	if err := p.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "user not found")
		return
	}

	if name := utils.Sanitize(strings.TrimSpace(ctx.PostForm("name"))); name != "" {
		if len([]rune(name)) > 255 {
			utils.Error(ctx, http.StatusBadRequest, "name too long")
			return
		}
		user.Name = name
	}

	if fh, err := ctx.FormFile("profile_photo"); err == nil && fh != nil {
		if err := validatePhoto(fh); err != nil {
			utils.Error(ctx, http.StatusBadRequest, err.Error())
			return
		}
		if user.ProfilePhoto != "" {
			if err := p.blobs.Delete(user.ProfilePhoto); err != nil {
				utils.Sugar.Warnf("delete old profile photo: %v", err)
			}
		}
		url, err := p.blobs.Store("profile_photos", fh)
		if err != nil {
			utils.Sugar.Errorf("store profile photo: %v", err)
			utils.Error(ctx, http.StatusInternalServerError, "failed to store profile photo")
			return
		}
		user.ProfilePhoto = url
	}

	if err := p.db.Save(&user).Error; err != nil {
		utils.Sugar.Errorf("update profile: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to update profile")
		return
	}

	utils.Success(ctx, "profile updated", user)
}
