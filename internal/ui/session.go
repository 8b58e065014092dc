package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pratik-mahalle/tiergate/internal/auth"
)

const (
	sessionCookie = "tiergate_session"
	identityKey   = "identity"
)

func (s *Server) startSession(c *gin.Context, id auth.Identity) error {
	pair, err := s.issuer.Mint(id)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, pair.AccessToken, int(s.issuer.AccessTTL().Seconds()), "/", "", s.opts.SecureCookies, true)
	return nil
}

func (s *Server) endSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.opts.SecureCookies, true)
}

// sessionIdentity returns the identity carried by a valid session cookie
func (s *Server) sessionIdentity(c *gin.Context) (auth.Identity, bool) {
	token, err := c.Cookie(sessionCookie)
	if err != nil || token == "" {
		return auth.Identity{}, false
	}
	claims, err := s.issuer.Parse(token, auth.KindAccess)
	if err != nil {
		return auth.Identity{}, false
	}
	return claims.Identity(), true
}

// requireSession redirects to the login page when there is no valid session
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := s.sessionIdentity(c)
		if !ok {
			s.endSession(c)
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func identity(c *gin.Context) auth.Identity {
	return c.MustGet(identityKey).(auth.Identity)
}
