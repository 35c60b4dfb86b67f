package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultBodyLimit applies to every JSON route.
const DefaultBodyLimit = 10 << 10

// BodyLimit caps request bodies at max bytes. Paths in skip keep their full body
// (the payment webhook needs the raw payload for signature checks).
func BodyLimit(max int64, skip ...string) gin.HandlerFunc {
	skipped := toSet(skip)
	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; !ok && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from reading past the body limit.
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
