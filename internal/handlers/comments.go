package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mkuznet/groupblog/internal/middleware"
	"github.com/mkuznet/groupblog/internal/models"
)

type CommentHandler struct {
	db *gorm.DB
}

func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{db: db}
}

// Create appends a comment to a post and redirects back to the detail
// view. Empty or over-length text creates nothing.
func (h *CommentHandler) Create(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	var post models.Post
	if err := h.db.First(&post, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	var form models.CommentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment text is required and capped at 150 characters"})
		return
	}

	comment := models.Comment{
		Text:     form.Text,
		AuthorID: user.ID,
		PostID:   &post.ID,
	}

	if err := h.db.Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	c.Redirect(http.StatusFound, detailPath(post.ID))
}
