package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"feedback-board-api/internal/authz"
	"feedback-board-api/internal/response"
	"feedback-board-api/internal/util"
)

const validateTimeout = 5 * time.Second

// TokenValidator resolves a bearer token to the caller it was issued for
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenStr string) (*authz.Caller, error)
}

// AuthWithValidator rejects requests without a valid bearer token
func AuthWithValidator(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authentication credentials were not provided")
			return
		}
		if !authenticate(c, validator, authHeader) {
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller when an Authorization header is present.
// Requests without the header continue anonymously; a bad token is still a 401.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		if !authenticate(c, validator, authHeader) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, validator TokenValidator, authHeader string) bool {
	tokenString, ok := bearerToken(authHeader)
	if !ok {
		abortUnauthorized(c, "Invalid authorization header format")
		return false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), validateTimeout)
	defer cancel()

	caller, err := validator.ValidateToken(ctx, tokenString)
	if err != nil || caller == nil {
		abortUnauthorized(c, "Given token not valid for any token type")
		return false
	}

	util.SetCaller(c, caller, tokenString)
	return true
}

// bearerToken extracts the token from "Bearer <token>"
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, message)
	c.Abort()
}
