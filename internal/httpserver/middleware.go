package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pizza-storefront/internal/session"
)

const sessionCtxKey = "session"

// sessionMiddleware resolves the caller's session, issuing one when the request carries none.
// The id is echoed in the response header and cookie.
func sessionMiddleware(issuer *session.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := session.FromRequest(c.Request)
		switch {
		case errors.Is(err, session.ErrMissing):
			id = issuer.Issue()
			http.SetCookie(c.Writer, issuer.Cookie(id))
		case err != nil:
			writeAPIError(c, http.StatusBadRequest, "InvalidSession", err.Error())
			c.Abort()
			return
		}
		c.Header(session.Header, id)
		c.Set(sessionCtxKey, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionCtxKey)
}
