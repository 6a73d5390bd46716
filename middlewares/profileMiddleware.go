package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
	"github.com/gin-gonic/gin"
)

// ProfileMiddleware resolves the acting profile from the X-Profile-Id header
// and attaches it to the request context. Model CRUD and the profile guard
// plugin both scope on it, so requests without a profile are rejected up
// front except for the exempted paths.
func ProfileMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isProfileExempt(c.Request.URL.Path) {
			c.Next()
			return
		}

		profileId := strings.TrimSpace(c.GetHeader("X-Profile-Id"))
		if profileId == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-Profile-Id header is required"})
			return
		}

		c.Request = c.Request.WithContext(utils.SetProfileIdInContext(c.Request.Context(), profileId))
		c.Next()
	}
}

func isProfileExempt(path string) bool {
	switch path {
	case "/healthz", "/jobs/settle-all":
		return true
	}
	return false
}
