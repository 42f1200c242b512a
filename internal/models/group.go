package models

type Group struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	Description string `json:"description"`
}

type CreateGroupRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Slug        string `json:"slug" binding:"required,max=100"`
	Description string `json:"description"`
}
