package models

import (
	"encoding/json"
	"time"
)

// Post represents a post created by a user. Photos holds a JSON array of
// stored photo URLs.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Caption   string    `gorm:"type:text" json:"caption"`
	Photos    string    `gorm:"type:text" json:"photos"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Likes     []Like    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"likes"`
	Comments  []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments"`
}

// PhotoURLs decodes the stored JSON array. A missing or malformed value
// yields an empty slice.
func (p Post) PhotoURLs() []string {
	if p.Photos == "" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(p.Photos), &urls); err != nil {
		return nil
	}
	return urls
}

// SetPhotoURLs encodes the URL list into the Photos column.
func (p *Post) SetPhotoURLs(urls []string) {
	if urls == nil {
		urls = []string{}
	}
	b, _ := json.Marshal(urls)
	p.Photos = string(b)
}
