package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Methods":  "GET,POST,OPTIONS",
	"Access-Control-Allow-Headers":  "Content-Type, X-Request-Id",
	"Access-Control-Expose-Headers": "X-Request-Id, Retry-After",
	"Access-Control-Max-Age":        "600",
}

// CORS answers preflights and decorates responses for the configured origins.
// "*" in the list allows any origin; the origin is still echoed back.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAny := false
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		switch o = strings.TrimSpace(o); o {
		case "":
		case "*":
			allowAny = true
		default:
			origins[strings.TrimSuffix(o, "/")] = true
		}
	}

	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" && (allowAny || origins[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			for k, v := range corsHeaders {
				c.Header(k, v)
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
