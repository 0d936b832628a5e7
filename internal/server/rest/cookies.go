package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/server/auth"
)

// cookieJar sets and clears the session cookies. Both are HttpOnly, scoped to
// "/", SameSite=Lax, and Secure in production.
type cookieJar struct {
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func (j cookieJar) set(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", j.secure, true)
}

func (j cookieJar) setTokens(c *gin.Context, pair *auth.TokenPair) {
	j.set(c, common.AccessTokenCookieName, pair.AccessToken, j.accessTTL)
	j.set(c, common.RefreshTokenCookieName, pair.RefreshToken, j.refreshTTL)
}

func (j cookieJar) clearTokens(c *gin.Context) {
	// a negative max age expires the cookie immediately
	j.set(c, common.AccessTokenCookieName, "", -time.Second)
	j.set(c, common.RefreshTokenCookieName, "", -time.Second)
}
