package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sosmed/models"
	"sosmed/services"
	"sosmed/storage"
	"sosmed/utils"
)

// tokenTTL is the lifetime of issued bearer tokens.
const tokenTTL = 72 * time.Hour

// AuthController handles registration, login and logout.
type AuthController struct {
	db        *gorm.DB
	numbering *services.NumberingService
	blobs     storage.BlobStore
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB, blobs storage.BlobStore) *AuthController {
	return &AuthController{
		db:        db,
		numbering: services.NewNumberingService(db),
		blobs:     blobs,
	}
}

// Register creates a user with a per-region registrant number and issues a JWT.
// An optional profile photo may be attached as multipart field "profile_photo".
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Name         string `form:"name" json:"name" binding:"required,max=255"`
		Email        string `form:"email" json:"email" binding:"required,email,max=255"`
		Password     string `form:"password" json:"password" binding:"required,min=6"`
		ProvinceCode string `form:"province_code" json:"province_code" binding:"required,max=10"`
		CityCode     string `form:"city_code" json:"city_code" binding:"required,max=10"`
	}

	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	name := utils.Sanitize(strings.TrimSpace(req.Name))
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, "name cannot be empty")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var existing models.User
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Sugar.Errorf("hash password: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "registration failed")
		return
	}

	photoURL := ""
	if fh, err := ctx.FormFile("profile_photo"); err == nil && fh != nil {
		if err := validatePhoto(fh); err != nil {
			utils.Error(ctx, http.StatusBadRequest, err.Error())
			return
		}
		photoURL, err = a.blobs.Store("profile_photos", fh)
		if err != nil {
			utils.Sugar.Errorf("store profile photo: %v", err)
			utils.Error(ctx, http.StatusInternalServerError, "failed to store profile photo")
			return
		}
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		ProvinceCode: strings.TrimSpace(req.ProvinceCode),
		CityCode:     strings.TrimSpace(req.CityCode),
		ProfilePhoto: photoURL,
	}

	if err := a.numbering.CreateUser(&user); err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			utils.Error(ctx, http.StatusConflict, "email already registered")
		case errors.Is(err, services.ErrNumberConflict):
			utils.Error(ctx, http.StatusConflict, "registrant number conflict, please retry")
		default:
			utils.Sugar.Errorf("create user: %v", err)
			utils.Error(ctx, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Name, tokenTTL)
	if err != nil {
		utils.Sugar.Errorf("generate token: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to generate token")
		return
	}

	utils.Created(ctx, "registration successful", gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"user":         user,
	})
}

// Login verifies credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Name, tokenTTL)
	if err != nil {
		utils.Sugar.Errorf("generate token: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to generate token")
		return
	}

	utils.Success(ctx, "login successful", gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"user":         user,
	})
}

// Logout invalidates the current token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenTTL)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, "logged out", nil)
}
