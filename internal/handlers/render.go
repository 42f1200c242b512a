package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mkuznet/groupblog/internal/feed"
	"github.com/mkuznet/groupblog/internal/models"
)

// DON'T embed models.Post — build each response manually
func postJSON(post models.Post) gin.H {
	item := gin.H{
		"id":         post.ID,
		"text":       post.Text,
		"author_id":  post.AuthorID,
		"author":     post.Author.Username,
		"image":      post.Image,
		"created_at": post.CreatedAt,
	}
	if post.Group != nil {
		item["group"] = gin.H{
			"id":    post.Group.ID,
			"title": post.Group.Title,
			"slug":  post.Group.Slug,
		}
	}
	return item
}

func postListJSON(posts []models.Post) []gin.H {
	items := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		items = append(items, postJSON(post))
	}
	return items
}

func feedJSON(result *feed.Result) gin.H {
	return gin.H{
		"posts": postListJSON(result.Posts),
		"page":  result.Page,
	}
}

func commentJSON(comment models.Comment) gin.H {
	return gin.H{
		"id":         comment.ID,
		"text":       comment.Text,
		"author_id":  comment.AuthorID,
		"author":     comment.Author.Username,
		"post_id":    comment.PostID,
		"created_at": comment.CreatedAt,
	}
}

func userJSON(user models.User) gin.H {
	return gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	}
}
