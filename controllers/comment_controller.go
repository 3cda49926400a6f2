package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sosmed/models"
	"sosmed/services"
	"sosmed/utils"
)

// maxCommentLength bounds a single comment body.
const maxCommentLength = 1000

// CommentController exposes the discussion tree of a post.
type CommentController struct {
	store *services.CommentStore
}

// NewCommentController creates a CommentController.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{store: services.NewCommentStore(db)}
}

// commentPayload is the flat comment representation embedded in the feed.
type commentPayload struct {
	ID        uint              `json:"id"`
	PostID    uint              `json:"post_id"`
	ParentID  *uint             `json:"parent_id,omitempty"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
	Author    models.PublicUser `json:"author"`
}

func toCommentPayload(c models.Comment) commentPayload {
	return commentPayload{
		ID:        c.ID,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Author:    c.User.Public(),
	}
}

func bindCommentContent(ctx *gin.Context) (string, bool) {
	var req struct {
		Content string `form:"content" json:"content" binding:"required"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "content is required")
		return "", false
	}

	content := utils.Sanitize(strings.TrimSpace(req.Content))
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, "content cannot be empty")
		return "", false
	}
	if len([]rune(content)) > maxCommentLength {
		utils.Error(ctx, http.StatusBadRequest, "content too long")
		return "", false
	}
	return content, true
}

// Add creates a top-level comment on a post.
func (c *CommentController) Add(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, "invalid post id")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	content, ok := bindCommentContent(ctx)
	if !ok {
		return
	}

	comment, err := c.store.Add(postID, userID, content)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "post not found")
			return
		}
		utils.Sugar.Errorf("add comment: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to add comment")
		return
	}

	c.invalidate(comment.PostID)
	utils.Created(ctx, "comment added", gin.H{"comment": comment})
}

// Reply creates a child comment under an existing comment. The reply always
// belongs to the same post as its parent.
func (c *CommentController) Reply(ctx *gin.Context) {
	parentID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, "invalid comment id")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	content, ok := bindCommentContent(ctx)
	if !ok {
		return
	}

	reply, err := c.store.Reply(parentID, userID, content)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "comment not found")
			return
		}
		utils.Sugar.Errorf("add reply: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to add reply")
		return
	}

	c.invalidate(reply.PostID)
	utils.Created(ctx, "reply added", gin.H{"comment": reply})
}

// List returns a post's top-level comments, oldest first, each with its nested
// replies.
func (c *CommentController) List(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, "invalid post id")
		return
	}

	cacheKey := commentsCacheKey(postID)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	tree, err := c.store.ListTopLevel(postID)
	if err != nil {
		utils.Sugar.Errorf("list comments: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to list comments")
		return
	}

	wrapper := utils.Envelope{Status: http.StatusOK, Message: "comments retrieved", Data: tree}
	utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	utils.Success(ctx, "comments retrieved", tree)
}

// Delete removes the requester's comment together with every reply under it.
func (c *CommentController) Delete(ctx *gin.Context) {
	commentID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, "invalid comment id")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	postID, err := c.store.Delete(commentID, userID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.Error(ctx, http.StatusNotFound, "comment not found")
		case errors.Is(err, services.ErrForbidden):
			utils.Error(ctx, http.StatusForbidden, "you can only delete your own comments")
		default:
			utils.Sugar.Errorf("delete comment: %v", err)
			utils.Error(ctx, http.StatusInternalServerError, "failed to delete comment")
		}
		return
	}

	c.invalidate(postID)
	utils.Success(ctx, "comment deleted", nil)
}

func commentsCacheKey(postID uint) string {
	return "cache:post:comments:" + strconv.FormatUint(uint64(postID), 10)
}

func (c *CommentController) invalidate(postID uint) {
	utils.InvalidateByPrefix(commentsCacheKey(postID))
	utils.InvalidateByPrefix("cache:posts:feed")
}
