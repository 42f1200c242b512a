package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mkuznet/groupblog/internal/middleware"
	"github.com/mkuznet/groupblog/internal/models"
)

type PostHandler struct {
	db *gorm.DB
}

func NewPostHandler(db *gorm.DB) *PostHandler {
	return &PostHandler{db: db}
}

// Detail returns a single post with its comments, newest first, and an
// empty comment form for the viewer to fill in.
func (h *PostHandler) Detail(c *gin.Context) {
	postID := c.Param("id")

	var post models.Post
	if err := h.db.Preload("Author").Preload("Group").First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	var comments []models.Comment
	if err := h.db.Where("post_id = ?", post.ID).
		Preload("Author").
		Order("created_at DESC, id DESC").
		Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	commentList := make([]gin.H, 0, len(comments))
	for _, comment := range comments {
		commentList = append(commentList, commentJSON(comment))
	}

	c.JSON(http.StatusOK, gin.H{
		"post":     postJSON(post),
		"comments": commentList,
		"form":     gin.H{"text": ""},
	})
}

// CreateForm returns the empty post form.
func (h *PostHandler) CreateForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"form": gin.H{"text": "", "group_id": nil, "image": ""},
	})
}

// Create persists a new post for the current user and redirects to their
// profile feed.
func (h *PostHandler) Create(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	var form models.PostForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required"})
		return
	}

	groupID, ok := h.resolveGroupID(form)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown group"})
		return
	}

	post := models.Post{
		Text:     form.Text,
		AuthorID: user.ID,
		GroupID:  groupID,
		Image:    form.Image,
	}

	if err := h.db.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+user.Username)
}

// EditForm returns the post's current field values for its author.
// Non-authors are sent to the read-only detail view.
func (h *PostHandler) EditForm(c *gin.Context) {
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

	if post.AuthorID != user.ID {
		c.Redirect(http.StatusFound, detailPath(post.ID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"form": gin.H{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		},
	})
}

// Edit applies validated changes to a post. Only the author may edit; a
// non-author is redirected to the detail view without any mutation.
func (h *PostHandler) Edit(c *gin.Context) {
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

	if post.AuthorID != user.ID {
		c.Redirect(http.StatusFound, detailPath(post.ID))
		return
	}

	var form models.PostForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required"})
		return
	}

	groupID, ok := h.resolveGroupID(form)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown group"})
		return
	}

	post.Text = form.Text
	post.GroupID = groupID
	if form.Image != "" {
		post.Image = form.Image
	}

	if err := h.db.Save(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	c.Redirect(http.StatusFound, detailPath(post.ID))
}

// resolveGroupID validates the form's group reference, given either as an
// id or a slug. Returns (nil, true) when no group was requested.
func (h *PostHandler) resolveGroupID(form models.PostForm) (*int, bool) {
	if form.GroupID != nil {
		if err := h.db.First(&models.Group{}, *form.GroupID).Error; err != nil {
			return nil, false
		}
		return form.GroupID, true
	}
	if form.Group != "" {
		var group models.Group
		if err := h.db.Where("slug = ?", form.Group).First(&group).Error; err != nil {
			return nil, false
		}
		return &group.ID, true
	}
	return nil, true
}

func detailPath(postID int) string {
	return fmt.Sprintf("/posts/%d", postID)
}
