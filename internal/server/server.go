package server

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mkuznet/groupblog/internal/cache"
	"github.com/mkuznet/groupblog/internal/database"
	"github.com/mkuznet/groupblog/internal/handlers"
	"github.com/mkuznet/groupblog/internal/middleware"
)

// SnapshotTTL is how long a rendered home-feed response stays cached.
const SnapshotTTL = 20 * time.Second

type Server struct {
	db database.Service
}

// NewServer creates and configures a new server
func NewServer() *http.Server {
	db := database.New()

	newServer := &Server{db: db}
	router := newServer.RegisterRoutes(db.GetDB(), cache.NewSnapshots(SnapshotTTL))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("Server starting on port %s", port)

	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes(db *gorm.DB, snapshots *cache.Snapshots) *gin.Engine {
	return NewRouter(db, snapshots, s.db.Health)
}

// NewRouter builds the gin engine over an already-open database. Split out
// from RegisterRoutes so tests can run the real route table against their
// own database.
func NewRouter(db *gorm.DB, snapshots *cache.Snapshots, health func() map[string]string) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	r.Use(middleware.CurrentUser(db))

	r.GET("/health", func(c *gin.Context) {
		if health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		c.JSON(http.StatusOK, health())
	})

	handler := handlers.NewHandler(db, snapshots)

	// Auth routes (public)
	r.POST("/auth/signup", handler.Auth.Signup)
	r.GET(middleware.LoginPath, handler.Auth.LoginForm)
	r.POST(middleware.LoginPath, handler.Auth.Login)

	// Feed routes (public reads)
	r.GET("/", handler.Feed.Home)
	r.GET("/group/:slug", handler.Feed.Group)
	r.GET("/profile/:username", handler.Feed.Profile)
	r.GET("/posts/:id", handler.Post.Detail)
	r.GET("/groups", handler.Group.List)

	// Protected routes (authentication required)
	protected := r.Group("")
	protected.Use(middleware.RequireUser())
	{
		protected.GET("/auth/me", handler.Auth.Me)

		protected.GET("/create", handler.Post.CreateForm)
		protected.POST("/create", handler.Post.Create)
		protected.GET("/posts/:id/edit", handler.Post.EditForm)
		protected.POST("/posts/:id/edit", handler.Post.Edit)
		protected.POST("/posts/:id/comment", handler.Comment.Create)

		protected.GET("/profile/:username/follow", handler.Follow.Follow)
		protected.GET("/profile/:username/unfollow", handler.Follow.Unfollow)
		protected.GET("/follow", handler.Feed.Following)

		protected.POST("/groups", handler.Group.Create)
		protected.DELETE("/groups/:slug", handler.Group.Delete)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
	})

	return r
}
