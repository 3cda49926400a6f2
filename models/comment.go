package models

import "time"

// Comment is a node in a post's discussion tree. ParentID is nil for
// top-level comments; replies always carry the post_id of their parent.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	UserID    uint      `gorm:"not null" json:"-"`
	ParentID  *uint     `gorm:"index" json:"parent_id,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	// Replies is populated in memory when assembling the tree; it is not a
	// gorm association.
	Replies []*Comment `gorm:"-" json:"replies,omitempty"`

	// Author mirrors User.Public() on serialized trees.
	Author *PublicUser `gorm:"-" json:"author,omitempty"`
}
