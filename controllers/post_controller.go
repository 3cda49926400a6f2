package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sosmed/models"
	"sosmed/storage"
	"sosmed/utils"
)

// PostController manages post CRUD and the like toggle.
type PostController struct {
	db    *gorm.DB
	blobs storage.BlobStore
}

// NewPostController creates a PostController.
func NewPostController(db *gorm.DB, blobs storage.BlobStore) *PostController {
	return &PostController{db: db, blobs: blobs}
}

// postPayload is the feed representation of a post; it hides the author's
// private fields.
type postPayload struct {
	ID        uint              `json:"id"`
	Caption   string            `json:"caption"`
	Photos    []string          `json:"photos"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Author    models.PublicUser `json:"author"`
	LikeCount int               `json:"like_count"`
	Likes     []models.Like     `json:"likes"`
	Comments  []commentPayload  `json:"comments"`
}

func toPostPayload(post models.Post) postPayload {
	comments := make([]commentPayload, 0, len(post.Comments))
	for _, c := range post.Comments {
		comments = append(comments, toCommentPayload(c))
	}
	return postPayload{
		ID:        post.ID,
		Caption:   post.Caption,
		Photos:    post.PhotoURLs(),
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
		Author:    post.User.Public(),
		LikeCount: len(post.Likes),
		Likes:     post.Likes,
		Comments:  comments,
	}
}

// Create makes a new post from multipart fields "caption" and "photo" files.
// Caption or at least one photo is required.
func (p *PostController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	caption := utils.Sanitize(strings.TrimSpace(ctx.PostForm("caption")))

	photos, err := p.storePhotos(ctx)
	if err != nil {
		respondPhotoError(ctx, err)
		return
	}

	if caption == "" && len(photos) == 0 {
		utils.Error(ctx, http.StatusBadRequest, "caption or photo is required")
		return
	}

	post := models.Post{
		UserID:  userID,
		Caption: caption,
	}
	post.SetPhotoURLs(photos)

	if err := p.db.Create(&post).Error; err != nil {
		utils.Sugar.Errorf("create post: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:feed")

	utils.Created(ctx, "post created", gin.H{"post": post})
}

// loadPost resolves the :id param to a post, answering 400/404/500 itself.
func (p *PostController) loadPost(ctx *gin.Context) (models.Post, bool) {
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, "invalid post id")
		return models.Post{}, false
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, "post not found")
			return models.Post{}, false
		}
		utils.Sugar.Errorf("load post: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to load post")
		return models.Post{}, false
	}
	return post, true
}

// ownedPost is the single ownership gate for post mutations.
func (p *PostController) ownedPost(ctx *gin.Context) (models.Post, bool) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return models.Post{}, false
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return models.Post{}, false
	}
	if post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, "you can only modify your own posts")
		return models.Post{}, false
	}
	return post, true
}

// Update lets the owner change caption and photos. When new photos are
// uploaded the old blobs are deleted before the new ones are stored; this is
// not atomic and a failure in between leaves the post without photos.
func (p *PostController) Update(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}

	if caption := utils.Sanitize(strings.TrimSpace(ctx.PostForm("caption"))); caption != "" {
		post.Caption = caption
	}

	if form, err := ctx.MultipartForm(); err == nil && form != nil && len(form.File["photo"]) > 0 {
		for _, old := range post.PhotoURLs() {
			if err := p.blobs.Delete(old); err != nil {
				utils.Sugar.Warnf("delete old post photo: %v", err)
			}
		}
		photos, err := p.storePhotos(ctx)
		if err != nil {
			respondPhotoError(ctx, err)
			return
		}
		post.SetPhotoURLs(photos)
	}

	if err := p.db.Save(&post).Error; err != nil {
		utils.Sugar.Errorf("update post: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to update post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:feed")

	utils.Success(ctx, "post updated", gin.H{"post": post})
}

// Delete removes the post's photo blobs, its likes and comments, then the row.
func (p *PostController) Delete(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}

	for _, url := range post.PhotoURLs() {
		if err := p.blobs.Delete(url); err != nil {
			utils.Sugar.Warnf("delete post photo: %v", err)
		}
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.Sugar.Errorf("delete post: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:feed")
	utils.InvalidateByPrefix("cache:post:comments:" + ctx.Param("id"))

	utils.Success(ctx, "post deleted", nil)
}

// List returns every post, newest first, with author, likes and comments.
func (p *PostController) List(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes("cache:posts:feed"); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var posts []models.Post
	err := p.db.Preload("User").Preload("Likes").Preload("Comments").
		Preload("Comments.User").
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		utils.Sugar.Errorf("list posts: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to list posts")
		return
	}

	items := make([]postPayload, 0, len(posts))
	for _, post := range posts {
		items = append(items, toPostPayload(post))
	}

	wrapper := utils.Envelope{Status: http.StatusOK, Message: "posts retrieved", Data: items}
	utils.CacheSetJSON("cache:posts:feed", wrapper, time.Hour)
	utils.Success(ctx, "posts retrieved", items)
}

// ToggleLike flips the (user, post) like row: present removes it, absent
// creates it.
func (p *PostController) ToggleLike(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	var like models.Like
	err := p.db.Where("user_id = ? AND post_id = ?", userID, post.ID).First(&like).Error
	switch {
	case err == nil:
		if err := p.db.Delete(&like).Error; err != nil {
			utils.Sugar.Errorf("remove like: %v", err)
			utils.Error(ctx, http.StatusInternalServerError, "failed to toggle like")
			return
		}
		utils.InvalidateByPrefix("cache:posts:feed")
		utils.Success(ctx, "like removed", gin.H{"liked": false})
	case err == gorm.ErrRecordNotFound:
		like = models.Like{UserID: userID, PostID: post.ID}
		if err := p.db.Create(&like).Error; err != nil {
			utils.Sugar.Errorf("create like: %v", err)
			utils.Error(ctx, http.StatusInternalServerError, "failed to toggle like")
			return
		}
		utils.InvalidateByPrefix("cache:posts:feed")
		utils.Success(ctx, "post liked", gin.H{"liked": true})
	default:
		utils.Sugar.Errorf("load like: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to toggle like")
	}
}

// respondPhotoError distinguishes client upload mistakes from storage failures.
func respondPhotoError(ctx *gin.Context, err error) {
	if errors.Is(err, errPhotoStoreFailed) {
		utils.Error(ctx, http.StatusInternalServerError, err.Error())
		return
	}
	utils.Error(ctx, http.StatusBadRequest, err.Error())
}

// storePhotos saves all multipart "photo" files and returns their URLs.
func (p *PostController) storePhotos(ctx *gin.Context) ([]string, error) {
	form, err := ctx.MultipartForm()
	if err != nil || form == nil {
		return nil, nil
	}
	files := form.File["photo"]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > maxPhotosPerPost {
		return nil, errTooManyPhotos
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		if err := validatePhoto(fh); err != nil {
			return nil, err
		}
		url, err := p.blobs.Store("posts", fh)
		if err != nil {
			utils.Sugar.Errorf("store post photo: %v", err)
			return nil, errPhotoStoreFailed
		}
		urls = append(urls, url)
	}
	return urls, nil
}
