package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkuznet/groupblog/internal/cache"
	"github.com/mkuznet/groupblog/internal/feed"
	"github.com/mkuznet/groupblog/internal/middleware"
	"github.com/mkuznet/groupblog/internal/pagination"
)

type FeedHandler struct {
	feeds     *feed.Service
	snapshots *cache.Snapshots
}

func NewFeedHandler(feeds *feed.Service, snapshots *cache.Snapshots) *FeedHandler {
	return &FeedHandler{feeds: feeds, snapshots: snapshots}
}

const jsonContentType = "application/json; charset=utf-8"

// Home serves the home feed. The rendered body is cached for the snapshot
// window, so repeated requests within it return byte-identical content.
func (h *FeedHandler) Home(c *gin.Context) {
	key := c.Request.URL.RequestURI()
	if body, ok := h.snapshots.Get(key); ok {
		c.Data(http.StatusOK, jsonContentType, body)
		return
	}

	result, err := h.feeds.Home(pagination.FromQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	body, err := json.Marshal(feedJSON(result))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render feed"})
		return
	}

	h.snapshots.Set(key, body)
	c.Data(http.StatusOK, jsonContentType, body)
}

// Group serves the feed of a single group, looked up by slug.
func (h *FeedHandler) Group(c *gin.Context) {
	result, err := h.feeds.Group(c.Param("slug"), pagination.FromQuery(c))
	if err != nil {
		if errors.Is(err, feed.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	payload := feedJSON(&result.Result)
	payload["group"] = gin.H{
		"id":          result.Group.ID,
		"title":       result.Group.Title,
		"slug":        result.Group.Slug,
		"description": result.Group.Description,
	}
	c.JSON(http.StatusOK, payload)
}

// Profile serves an author's feed plus whether the viewer follows them.
func (h *FeedHandler) Profile(c *gin.Context) {
	viewerID := 0
	if user, ok := middleware.UserFrom(c); ok {
		viewerID = user.ID
	}

	result, err := h.feeds.Profile(c.Param("username"), viewerID, pagination.FromQuery(c))
	if err != nil {
		if errors.Is(err, feed.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	payload := feedJSON(&result.Result)
	payload["author"] = gin.H{
		"id":       result.Author.ID,
		"username": result.Author.Username,
	}
	payload["following"] = result.Following
	c.JSON(http.StatusOK, payload)
}

// Following serves posts by the authors the current user follows.
func (h *FeedHandler) Following(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	result, err := h.feeds.Following(user.ID, pagination.FromQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, feedJSON(result))
}
