package services

import (
	"errors"

	"gorm.io/gorm"

	"sosmed/models"
)

// ErrForbidden reports an ownership violation on a mutation.
var ErrForbidden = errors.New("forbidden")

// CommentStore models a post's discussion as a self-referencing tree.
//
// Trees are reconstructed by loading every comment of a post once and building
// parent to children adjacency in memory, never by recursive queries.
type CommentStore struct {
	db *gorm.DB
}

// NewCommentStore creates a CommentStore on the given database.
func NewCommentStore(db *gorm.DB) *CommentStore {
	return &CommentStore{db: db}
}

// Add creates a top-level comment on a post. Returns gorm.ErrRecordNotFound
// when the post does not exist.
func (s *CommentStore) Add(postID, authorID uint, content string) (models.Comment, error) {
	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{
		PostID:  post.ID,
		UserID:  authorID,
		Content: content,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// Reply creates a child comment. The post id is always copied from the parent,
// never supplied by the caller. Returns gorm.ErrRecordNotFound when the parent
// comment does not exist.
func (s *CommentStore) Reply(parentID, authorID uint, content string) (models.Comment, error) {
	var parent models.Comment
	if err := s.db.First(&parent, parentID).Error; err != nil {
		return models.Comment{}, err
	}

	reply := models.Comment{
		PostID:   parent.PostID,
		UserID:   authorID,
		ParentID: &parent.ID,
		Content:  content,
	}
	if err := s.db.Create(&reply).Error; err != nil {
		return models.Comment{}, err
	}
	return reply, nil
}

// ListTopLevel returns the post's top-level comments ordered by creation time
// ascending, each with its full reply subtree attached.
func (s *CommentStore) ListTopLevel(postID uint) ([]*models.Comment, error) {
	var comments []models.Comment
	err := s.db.Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return BuildTree(comments), nil
}

// Delete removes a comment and its whole reply subtree and returns the id of
// the post the comment belonged to. Only the comment's author may delete it;
// ErrForbidden is returned otherwise.
func (s *CommentStore) Delete(commentID, requesterID uint) (uint, error) {
	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		return 0, err
	}
	if comment.UserID != requesterID {
		return 0, ErrForbidden
	}

	var siblings []models.Comment
	if err := s.db.Select("id", "parent_id").Where("post_id = ?", comment.PostID).Find(&siblings).Error; err != nil {
		return 0, err
	}
	ids := SubtreeIDs(siblings, comment.ID)
	if err := s.db.Delete(&models.Comment{}, ids).Error; err != nil {
		return 0, err
	}
	return comment.PostID, nil
}

// BuildTree assembles parent to children adjacency from a flat, creation-ordered
// slice and returns the top-level comments with nested replies.
func BuildTree(comments []models.Comment) []*models.Comment {
	nodes := make(map[uint]*models.Comment, len(comments))
	for i := range comments {
		c := &comments[i]
		author := c.User.Public()
		c.Author = &author
		nodes[c.ID] = c
	}

	roots := make([]*models.Comment, 0)
	for i := range comments {
		c := &comments[i]
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		if parent, ok := nodes[*c.ParentID]; ok {
			parent.Replies = append(parent.Replies, c)
		}
		// Replies whose parent is gone are orphans and stay hidden.
	}
	return roots
}

// SubtreeIDs returns the ids of the comment and all of its descendants within
// the given flat slice.
func SubtreeIDs(comments []models.Comment, rootID uint) []uint {
	children := make(map[uint][]uint, len(comments))
	for _, c := range comments {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	ids := []uint{rootID}
	for i := 0; i < len(ids); i++ {
		ids = append(ids, children[ids[i]]...)
	}
	return ids
}
