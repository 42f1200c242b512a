package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mkuznet/groupblog/internal/middleware"
	"github.com/mkuznet/groupblog/internal/models"
)

type FollowHandler struct {
	db *gorm.DB
}

func NewFollowHandler(db *gorm.DB) *FollowHandler {
	return &FollowHandler{db: db}
}

// Follow subscribes the current user to an author and redirects to the
// author's profile. Following yourself is silently skipped; following
// someone twice leaves a single row, enforced by the unique index rather
// than a check-then-act read.
func (h *FollowHandler) Follow(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	author, found := h.lookupAuthor(c)
	if !found {
		return
	}

	if author.ID == user.ID {
		c.Redirect(http.StatusFound, profilePath(author.Username))
		return
	}

	follow := models.Follow{FollowerID: user.ID, AuthorID: author.ID}
	if err := h.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to follow user"})
		return
	}

	c.Redirect(http.StatusFound, profilePath(author.Username))
}

// Unfollow removes the subscription if present and redirects to the
// author's profile. Unfollowing someone you do not follow is a no-op.
func (h *FollowHandler) Unfollow(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	author, found := h.lookupAuthor(c)
	if !found {
		return
	}

	if err := h.db.Where("follower_id = ? AND author_id = ?", user.ID, author.ID).
		Delete(&models.Follow{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfollow user"})
		return
	}

	c.Redirect(http.StatusFound, profilePath(author.Username))
}

func (h *FollowHandler) lookupAuthor(c *gin.Context) (models.User, bool) {
	var author models.User
	if err := h.db.Where("username = ?", c.Param("username")).First(&author).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return models.User{}, false
	}
	return author, true
}

func profilePath(username string) string {
	return "/profile/" + username
}
