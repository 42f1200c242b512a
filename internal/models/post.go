package models

import "time"

type Post struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Text     string `gorm:"type:text;not null" json:"text"`
	AuthorID int    `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author"`
	GroupID  *int   `gorm:"index" json:"group_id,omitempty"`
	Group    *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	Image    string `json:"image,omitempty"`

	// Publication timestamp, set once at creation.
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

type PostForm struct {
	Text    string `json:"text" binding:"required"`
	GroupID *int   `json:"group_id"`
	// Group names the group by slug, as an alternative to group_id.
	Group string `json:"group"`
	Image string `json:"image"`
}
