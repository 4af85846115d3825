package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"pharmacy-coverage/internal/response"

	"github.com/gin-gonic/gin"
)

const (
	// AccountAddressKey is the gin context key holding the caller's account address
	AccountAddressKey = "account_address"
	// NetworkKey is the gin context key holding the caller's network id, if sent
	NetworkKey = "network_id"
)

var accountPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAccountAddress reports whether address is a 0x-prefixed 20-byte hex address
func ValidAccountAddress(address string) bool {
	return accountPattern.MatchString(address)
}

// AccountMiddleware identifies the caller's account.
// The account comes from the X-Account-Address header or the address query parameter;
// the wallet connection itself lives outside this service. Changes seen for a
// session (X-Session-ID) are published to feed, which may be nil.
func AccountMiddleware(feed *AccountFeed) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := strings.TrimSpace(c.GetHeader("X-Account-Address"))
		if address == "" {
			address = strings.TrimSpace(c.Query("address"))
		}

		if address == "" {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing account address"))
			c.Abort()
			return
		}
		if !ValidAccountAddress(address) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid account address"))
			c.Abort()
			return
		}

		network := strings.TrimSpace(c.GetHeader("X-Network-ID"))
		if feed != nil {
			feed.Observe(c.GetHeader("X-Session-ID"), address, network)
		}

		c.Set(AccountAddressKey, address)
		c.Set(NetworkKey, network)
		c.Set("request_time", time.Now())
		c.Next()
	}
}

// AccountAddress returns the address set by AccountMiddleware
func AccountAddress(c *gin.Context) string {
	return c.GetString(AccountAddressKey)
}
