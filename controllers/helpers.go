package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"sosmed/middleware"
)

// maxPhotoSize limits individual photo uploads to 2MB.
const maxPhotoSize = 2 << 20

// maxPhotosPerPost limits how many photos can be attached to a single post.
const maxPhotosPerPost = 8

var (
	errTooManyPhotos    = fmt.Errorf("at most %d photos per post", maxPhotosPerPost)
	errPhotoStoreFailed = errors.New("failed to store photo")
)

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(ctx.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// validatePhoto checks extension and size of an uploaded image.
func validatePhoto(fh *multipart.FileHeader) error {
	switch strings.ToLower(filepath.Ext(fh.Filename)) {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		return fmt.Errorf("unsupported photo type %q", filepath.Ext(fh.Filename))
	}
	if fh.Size > maxPhotoSize {
		return fmt.Errorf("photo exceeds 2MB limit")
	}
	return nil
}
