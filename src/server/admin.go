package server

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Admin: bind MT login to user
// -----------------------------------------------------------------------------

// getAdminBind renders the bind form. The login selector only offers
// unassigned logins; that filter is the sole guard against double-binding.
func (s *WebServer) getAdminBind(c *gin.Context) {
	freeLogins := s.State.UnassignedLogins()

	users := make([]string, 0)
	for _, username := range s.State.Usernames() {
		if username != s.Config.AdminUser {
			users = append(users, username)
		}
	}

	var loginOptions strings.Builder
	if len(freeLogins) == 0 {
		loginOptions.WriteString(`<option value="">(none available)</option>`)
	}
	for _, login := range freeLogins {
		fmt.Fprintf(&loginOptions, `<option value="%s">%s</option>`, html.EscapeString(login), html.EscapeString(login))
	}

	var userOptions strings.Builder
	for _, username := range users {
		fmt.Fprintf(&userOptions, `<option value="%s">%s</option>`, html.EscapeString(username), html.EscapeString(username))
	}

	disabled := ""
	if len(freeLogins) == 0 {
		disabled = " disabled"
	}

	accounts := s.State.Accounts()
	usernames := make([]string, 0, len(accounts))
	for username := range accounts {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	var current strings.Builder
	for _, username := range usernames {
		login := accounts[username].LoginMT
		if login == "" {
			login = "—"
		}
		fmt.Fprintf(&current, `<li>%s → %s</li>`, html.EscapeString(username), html.EscapeString(login))
	}

	page := fmt.Sprintf(`
		<h2>Admin: bind MT login to user</h2>
		<form method="POST" action="/admin/bind/do" style="display:grid; gap:12px; max-width:420px;">
			<label>MT login (unassigned)</label>
			<select name="login" required>%s</select>

			<label>User</label>
			<select name="user" required>%s</select>

			<button type="submit"%s>Bind</button>
		</form>

		<hr/>
		<h3>Current bindings</h3>
		<ul>%s</ul>

		<p style="margin-top:10px;"><a href="/dashboard">Back to dashboard</a></p>`,
		loginOptions.String(), userOptions.String(), disabled, current.String(),
	)

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// -----------------------------------------------------------------------------

func (s *WebServer) postAdminBind(c *gin.Context) {
	user := c.PostForm("user")
	login := c.PostForm("login")

	if err := s.State.Bind(user, login); err != nil {
		c.String(http.StatusBadRequest, "Missing parameters")
		return
	}

	s.Logger.Info("Bound login %s to user %s", login, user)
	c.Redirect(http.StatusFound, "/diag/"+url.PathEscape(user))
}

// -----------------------------------------------------------------------------
// Admin: create user
// -----------------------------------------------------------------------------

func (s *WebServer) getAdminNewUser(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(`
		<h2>Admin: add user</h2>
		<form method="POST" action="/admin/users/new" style="display:grid; gap:12px; max-width:420px;">
			<label>Username (e.g. first.last)</label>
			<input name="username" required />
			<label>Password</label>
			<input name="password" type="password" required />
			<label>Display name (optional)</label>
			<input name="displayName" />
			<button type="submit">Create</button>
		</form>
		<p><a href="/admin/bind">Go to bind</a></p>
	`))
}

// -----------------------------------------------------------------------------

func (s *WebServer) postAdminNewUser(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	displayName := c.PostForm("displayName")

	if err := s.State.CreateUser(username, password, displayName); err != nil {
		c.String(http.StatusBadRequest, "username/password required")
		return
	}

	s.Logger.Info("Provisioned user %s", username)
	c.Redirect(http.StatusFound, "/admin/bind")
}
