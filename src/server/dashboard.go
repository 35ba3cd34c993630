package server

import (
	"fmt"
	"html"
	"net/http"
	"strconv"
	"time"

	"prop-backend/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// User Dashboard
// -----------------------------------------------------------------------------

// getDashboard joins the session's username to its binding and the
// telemetry table. Pure read-side view: unbound accounts render
// placeholders, bound-but-silent accounts render a waiting note.
func (s *WebServer) getDashboard(c *gin.Context) {
	username := c.GetString("username")

	displayName := username
	loginMT := "—"
	balance, equity, updated := "—", "—", "—"
	marketNote := ""
	waitingNote := ""

	acc, hasAcc := s.State.Account(username)
	if hasAcc && acc.DisplayName != "" {
		displayName = acc.DisplayName
	}

	if hasAcc && acc.Bound() {
		loginMT = acc.LoginMT
		if pkt, ok := s.State.Latest(acc.LoginMT); ok {
			balance = formatAmount(pkt.Balance)
			equity = formatAmount(pkt.Equity)
			updated = pkt.ReceivedAt.Local().Format("2006-01-02 15:04:05")

			server := ""
			if pkt.Server != nil {
				server = *pkt.Server
			}
			if utils.GetMarketHours(server).IsOpen(time.Now()) {
				marketNote = `<p><b>Market session:</b> open</p>`
			} else {
				marketNote = `<p><b>Market session:</b> closed</p>`
			}
		} else {
			waitingNote = `<p style="color:#a00;">Awaiting data from the EA...</p>`
		}
	} else {
		waitingNote = `<p style="color:#a00;">No MT account bound yet.</p>`
	}

	adminLinks := ""
	if username == s.Config.AdminUser {
		adminLinks = `<p><a href="/admin/users/new">Admin: create user</a> | <a href="/admin/bind">Admin: bind login</a></p>`
	}

	page := fmt.Sprintf(`
		<h2>Hello %s</h2>
		<div style="display:grid; gap:14px; max-width:720px;">
			<section style="border:1px solid #ddd; padding:12px; border-radius:8px;">
				<h3 style="margin:0 0 8px;">Your MT account</h3>
				<p><b>MT login:</b> %s</p>
				<p><b>Balance:</b> %s</p>
				<p><b>Equity:</b> %s</p>
				<p><b>Last update:</b> %s</p>
				%s%s
			</section>

			<section style="border:1px solid #ddd; padding:12px; border-radius:8px;">
				<h3 style="margin:0 0 8px;">Stripe payments</h3>
				<p>(placeholder)</p>
			</section>

			<section style="border:1px solid #ddd; padding:12px; border-radius:8px;">
				<h3 style="margin:0 0 8px;">Payout</h3>
				<p>(placeholder)</p>
			</section>
		</div>
		<p style="margin-top:16px;"><a href="/logout">Sign out</a></p>
		%s`,
		html.EscapeString(displayName),
		html.EscapeString(loginMT),
		balance, equity, updated,
		marketNote, waitingNote,
		adminLinks,
	)

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// -----------------------------------------------------------------------------

func formatAmount(v *float64) string {
	if v == nil {
		return "—"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
