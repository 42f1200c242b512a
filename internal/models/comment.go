package models

import "time"

type Comment struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Text     string `gorm:"size:150;not null" json:"text"`
	AuthorID int    `gorm:"not null" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author"`
	// Nullable so a comment survives its post being removed.
	PostID *int  `gorm:"index" json:"post_id,omitempty"`
	Post   *Post `gorm:"foreignKey:PostID;constraint:OnDelete:SET NULL" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

type CommentForm struct {
	Text string `json:"text" binding:"required,max=150"`
}
