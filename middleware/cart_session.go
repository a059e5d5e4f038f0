package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CartSessionHeader = "X-Cart-Session"
	CartSessionCookie = "cart_session"

	cartSessionKey = "cart_session"
)

// CartSession resolves the shopper's cart session id from the X-Cart-Session
// header or the cart_session cookie and issues a new one when neither carries
// a valid id. The id is echoed back in both places.
func CartSession(maxAge int) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(CartSessionHeader)
		if sessionID == "" {
			if cookie, err := c.Cookie(CartSessionCookie); err == nil {
				sessionID = cookie
			}
		}
		if _, err := uuid.Parse(sessionID); err != nil {
			sessionID = uuid.NewString()
		}

		c.Set(cartSessionKey, sessionID)
		c.Header(CartSessionHeader, sessionID)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CartSessionCookie, sessionID, maxAge, "/", "", false, true)

		c.Next()
	}
}

// GetCartSession returns the session id set by CartSession.
func GetCartSession(c *gin.Context) (string, error) {
	sessionID := c.GetString(cartSessionKey)
	if sessionID == "" {
		return "", &AuthError{Code: "MISSING_CART_SESSION", Message: "Cart session not found in context"}
	}
	return sessionID, nil
}
