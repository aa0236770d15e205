package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"cinetalk/internal/db"
	"cinetalk/internal/models"
	"cinetalk/internal/services"
)

const CheckUserKey = "user"
const UnreadCountKey = "unread_count"

// LoadUser resolves the session into a *models.User on the context. It
// never rejects; endpoints that need a user go through AuthRequired.
func LoadUser(notify *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		uid := session.Get("user_uid")

		if uid != nil {
			var user models.User
			result := db.DB.Where("uid = ?", uid).First(&user)
			if result.Error == nil {
				c.Set(CheckUserKey, &user)

				if count, err := notify.UnreadCount(user.UID); err == nil {
					c.Set(UnreadCountKey, count)
				}
			}
		}
		c.Next()
	}
}

// AuthRequired rejects requests that LoadUser could not attach a user to.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user LoadUser attached, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(CheckUserKey); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
