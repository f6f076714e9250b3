package middleware

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam extracts and validates a numeric URL parameter.
// paramName is the URL parameter name (e.g. "id"); contextKey is where the
// parsed value is stored in the Gin context.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param(paramName)
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", paramName)})
			c.Abort()
			return
		}
		c.Set(contextKey, uint(id))
		c.Next()
	}
}

var sessionCodePattern = regexp.MustCompile(`^\d{4}$`)

// ExtractSessionCode validates that the named URL parameter is exactly four
// decimal digits (spec.md §6) and stores it in the Gin context.
func ExtractSessionCode(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param(paramName)
		if !sessionCodePattern.MatchString(code) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session code must be 4 digits"})
			c.Abort()
			return
		}
		c.Set(contextKey, code)
		c.Next()
	}
}
