package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIPKey is the gin context key holding the resolved client address.
const RealIPKey = "real_ip"

// forwardedHeaders are consulted in order; the first parseable address wins.
// X-Forwarded-For may carry a chain, of which only the left-most hop is used.
var forwardedHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

func firstHop(v string) net.IP {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return net.ParseIP(strings.TrimSpace(v))
}

// RealIP resolves the client address behind proxies and stores it under RealIPKey.
// Requests without forwarding headers fall back to gin's ClientIP.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		for _, h := range forwardedHeaders {
			if parsed := firstHop(c.GetHeader(h)); parsed != nil {
				ip = parsed.String()
				break
			}
		}
		c.Set(RealIPKey, ip)
		c.Next()
	}
}
