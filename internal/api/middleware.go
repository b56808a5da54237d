package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"procurement-service/internal/models"
	"procurement-service/internal/util"
)

const userContextKey = "currentUser"

// requireAuth resolves the Bearer token and stores the user on the context.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			failure(c, http.StatusUnauthorized, "missing or malformed Authorization header")
			c.Abort()
			return
		}

		user, err := h.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			failure(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// requireShop restricts a route to shop accounts. Must run after requireAuth.
func (h *Handler) requireShop() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c).Type != models.UserTypeShop {
			failure(c, http.StatusForbidden, "shop account required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUser returns the authenticated user set by requireAuth.
func currentUser(c *gin.Context) *models.User {
	user, _ := c.MustGet(userContextKey).(*models.User)
	return user
}

// metricsMiddleware records request counts and latency per route.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		util.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
	}
}
