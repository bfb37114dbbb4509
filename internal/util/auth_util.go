package util

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"feedback-board-api/internal/authz"
	"feedback-board-api/internal/response"
)

const (
	// CallerKey is the gin context key holding the authenticated *authz.Caller
	CallerKey = "caller"
	// TokenKey is the gin context key holding the raw bearer token
	TokenKey = "jwtToken"
)

// SetCaller stores the authenticated caller and its token on the request
func SetCaller(c *gin.Context, caller *authz.Caller, token string) {
	c.Set(CallerKey, caller)
	c.Set(TokenKey, token)
}

// CallerFrom returns the caller stored on the request, or nil for anonymous requests
func CallerFrom(c *gin.Context) *authz.Caller {
	v, exists := c.Get(CallerKey)
	if !exists {
		return nil
	}
	caller, _ := v.(*authz.Caller)
	return caller
}

// RequireCaller returns the caller, or writes a 401 and reports false
func RequireCaller(c *gin.Context) (*authz.Caller, bool) {
	caller := CallerFrom(c)
	if caller == nil {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "Authentication credentials were not provided")
		return nil, false
	}
	return caller, true
}
