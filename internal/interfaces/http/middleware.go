package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mitrajaya/garment-tracker/internal/auth"
)

// Header names for request identity and the authenticated user. The user
// headers are filled by the session layer in front of this service; they
// stand in for the out-of-scope session lookup.
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderUserName       = "X-User-Name"
	HeaderUserDepartment = "X-User-Department"
	HeaderUserAdmin      = "X-User-Admin"

	contextKeyUser = "currentUser"
)

// RequestID generates or propagates a request ID on every request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("requestId", requestID)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// CurrentUser resolves the authenticated user from request headers and
// aborts with 401 when none is present. Read-only routes skip this.
func CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.GetHeader(HeaderUserName)
		if name == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   auth.ErrUnauthenticated.Error(),
			})
			return
		}

		c.Set(contextKeyUser, auth.User{
			Name:       name,
			Department: c.GetHeader(HeaderUserDepartment),
			IsAdmin:    strings.EqualFold(c.GetHeader(HeaderUserAdmin), "true"),
		})
		c.Next()
	}
}

func userFrom(c *gin.Context) auth.User {
	if v, ok := c.Get(contextKeyUser); ok {
		if user, ok := v.(auth.User); ok {
			return user
		}
	}
	return auth.User{}
}
