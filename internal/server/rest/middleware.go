package rest

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
	currentUserKey  = "currentUser"
)

// requestID reuses the caller's X-Request-ID or mints one, and echoes it back.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(requestIDKey),
		}
		if u := currentUser(c); u != nil {
			args = append(args, "user_id", u.ID)
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error(c.Request.Context(), "request", append(args, "errors", c.Errors.String())...)
		case status >= http.StatusBadRequest:
			logger.Warn(c.Request.Context(), "request", args...)
		default:
			logger.Info(c.Request.Context(), "request", args...)
		}
	}
}

// recovery turns a panic into a 500 envelope without exposing details.
func recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error(c.Request.Context(), "panic recovered",
			"panic", fmt.Sprint(recovered),
			"request_id", c.GetString(requestIDKey))
		abortWith(c, http.StatusInternalServerError, msgInternal)
	})
}

// bodyLimit caps request bodies: multipart uploads get uploadLimit, every
// other body gets limit. A non-positive value disables that cap.
func bodyLimit(limit, uploadLimit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			n := limit
			if strings.HasPrefix(c.ContentType(), "multipart/") {
				n = uploadLimit
			}
			if n > 0 {
				c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
			}
		}
		c.Next()
	}
}

// session is the access gate for protected routes: cookie first, then the
// Bearer header. On success the sanitized user is stored under "currentUser".
func (s *HTTPServer) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.accounts.Authenticate(c.Request.Context(), accessToken(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if token, err := c.Cookie(common.AccessTokenCookieName); err == nil && token != "" {
		return token
	}
	header := c.GetHeader(common.AuthorizationHeaderName)
	if strings.HasPrefix(header, common.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))
	}
	return ""
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
