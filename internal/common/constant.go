// Package common contains shared constants and sentinel errors used across
// accountkeeper components.
package common

// Cookie names carrying the session tokens. The access token cookie is also
// the first place the session middleware looks for a credential.
const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"
)

// AuthorizationHeaderName and BearerPrefix describe the fallback credential
// location when no access token cookie is present.
const (
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
)
