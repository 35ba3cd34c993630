package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Session Helpers
// -----------------------------------------------------------------------------

func (s *WebServer) currentUser(c *gin.Context) (string, bool) {
	sess, err := s.sessions.Get(c.Request, sessionName)
	if err != nil {
		return "", false
	}
	username, ok := sess.Values["username"].(string)
	return username, ok && username != ""
}

// -----------------------------------------------------------------------------
// Guards
// -----------------------------------------------------------------------------

// requireAuth redirects unauthenticated callers to the login page. A UX
// choice, not a security boundary.
func (s *WebServer) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := s.currentUser(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set("username", username)
		c.Next()
	}
}

// -----------------------------------------------------------------------------

func (s *WebServer) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("username") != s.Config.AdminUser {
			c.Data(http.StatusForbidden, "text/html; charset=utf-8", []byte(`Admin only. <a href="/login">Login</a>`))
			c.Abort()
			return
		}
		c.Next()
	}
}

// -----------------------------------------------------------------------------
// Login / Logout
// -----------------------------------------------------------------------------

func (s *WebServer) getLogin(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(`
		<h2>Login</h2>
		<form method="POST" action="/login" style="max-width:320px">
			<label>Username</label><br/>
			<input name="username" placeholder="e.g. first.last" required /><br/><br/>
			<label>Password</label><br/>
			<input name="password" type="password" placeholder="********" required /><br/><br/>
			<button type="submit">Sign in</button>
		</form>
	`))
}

// -----------------------------------------------------------------------------

func (s *WebServer) postLogin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	if !s.State.Authenticate(username, password) {
		// 200 with a retry prompt: login failure carries no status signal
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(`Wrong credentials. <a href="/login">Retry</a>`))
		return
	}

	sess, _ := s.sessions.Get(c.Request, sessionName)
	sess.Values["username"] = username
	if err := sess.Save(c.Request, c.Writer); err != nil {
		s.Logger.Error("Saving session for %s: %v", username, err)
	}

	c.Redirect(http.StatusFound, "/dashboard")
}

// -----------------------------------------------------------------------------

func (s *WebServer) getLogout(c *gin.Context) {
	sess, _ := s.sessions.Get(c.Request, sessionName)
	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request, c.Writer); err != nil {
		s.Logger.Error("Destroying session: %v", err)
	}
	c.Redirect(http.StatusFound, "/login")
}
