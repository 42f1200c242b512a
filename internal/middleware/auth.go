package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mkuznet/groupblog/internal/auth"
	"github.com/mkuznet/groupblog/internal/models"
)

const userKey = "user"

// LoginPath is where anonymous requests to protected routes are sent.
const LoginPath = "/auth/login"

// CurrentUser resolves the session token (Authorization header or
// auth_token cookie) to a user row and stores it in the context.
// Anonymous or invalid-token requests pass through unauthenticated.
func CurrentUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.Next()
			return
		}

		userID, err := auth.ParseToken(tokenString)
		if err != nil {
			c.Next()
			return
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			c.Next()
			return
		}

		c.Set(userKey, &user)
		c.Next()
	}
}

// RequireUser redirects anonymous requests to the login page. It must run
// after CurrentUser.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserFrom(c); !ok {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserFrom returns the authenticated user stored by CurrentUser, if any.
func UserFrom(c *gin.Context) (*models.User, bool) {
	raw, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	user, ok := raw.(*models.User)
	return user, ok
}

func tokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie("auth_token"); err == nil {
		return cookie
	}
	return ""
}
