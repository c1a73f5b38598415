package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trivion/errs"
)

const claimsKey = "trivion_claims"

// authenticated requires a valid "Authorization: Bearer <token>" header,
// binding the resulting claims into the request context for handlers
// to resolve the acting member from. §4.10's administrator-only HTTP
// endpoints all carry this middleware.
func (h *Handler) authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			fail(c, http.StatusUnauthorized, errs.ErrNotAuthorized)
			c.Abort()
			return
		}
		claims, err := h.issuer.Verify(token)
		if err != nil {
			fail(c, http.StatusUnauthorized, errs.ErrNotAuthorized)
			c.Abort()
			return
		}
		if claims.Room != c.Param("code") {
			fail(c, http.StatusUnauthorized, errs.ErrNotAuthorized)
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}
