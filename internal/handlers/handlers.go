package handlers

import (
	"gorm.io/gorm"

	"github.com/mkuznet/groupblog/internal/cache"
	"github.com/mkuznet/groupblog/internal/feed"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Feed    *FeedHandler
	Post    *PostHandler
	Comment *CommentHandler
	Follow  *FollowHandler
	Group   *GroupHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, snapshots *cache.Snapshots) *Handler {
	feeds := feed.NewService(db)

	return &Handler{
		Auth:    NewAuthHandler(db),
		Feed:    NewFeedHandler(feeds, snapshots),
		Post:    NewPostHandler(db),
		Comment: NewCommentHandler(db),
		Follow:  NewFollowHandler(db),
		Group:   NewGroupHandler(db),
	}
}
