// Package validation provides input validation helpers and middleware for
// the fraud console API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (1MB)
const MaxRequestSize = 1 << 20 // 1MB

// MaxFieldLength is the maximum length for free-text fields
const MaxFieldLength = 512

var (
	// amountRegex validates positive decimal amounts
	amountRegex = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	// idRegex validates generated entity IDs (prefix_hex-uuid)
	idRegex = regexp.MustCompile(`^[a-z]{3}_[a-f0-9-]{36}$`)
	// actorRegex validates actor names recorded in the audit log
	actorRegex = regexp.MustCompile(`^[a-zA-Z0-9._@-]{1,128}$`)
)

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IsValidAmount checks that a string is a positive decimal number
func IsValidAmount(amount string) bool {
	return amountRegex.MatchString(strings.TrimSpace(amount))
}

// IsValidEntityID checks that a string looks like a generated entity ID
func IsValidEntityID(id string) bool {
	return idRegex.MatchString(id)
}

// IsValidActor checks that an actor name is safe to record in the audit log
func IsValidActor(actor string) bool {
	return actorRegex.MatchString(actor)
}

// Sanitize trims whitespace, strips null bytes and caps the field length
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > MaxFieldLength {
		s = s[:MaxFieldLength]
	}
	return strings.ReplaceAll(s, "\x00", "")
}
