package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-practice/internal/response"
	"github.com/stemsi/exstem-practice/internal/service"
)

// RequireTokenType checks that the JWT was issued for one of the given token types.
func RequireTokenType(types ...service.TokenType) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if slices.Contains(types, claims.TokenType) {
			c.Next()
			return
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrForbidden)
	}
}
