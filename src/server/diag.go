package server

import (
	"net/http"
	"sort"
	"time"

	"prop-backend/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Diagnostics (unauthenticated by contract)
// -----------------------------------------------------------------------------

// getDiag lists every provisioned binding and whether a packet has arrived
// for its login.
func (s *WebServer) getDiag(c *gin.Context) {
	type slugRow struct {
		User             string `json:"user"`
		LoginMT          any    `json:"loginMT"`
		LastPacketExists bool   `json:"lastPacketExists"`
	}

	accounts := s.State.Accounts()
	usernames := make([]string, 0, len(accounts))
	for username := range accounts {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	rows := make([]slugRow, 0, len(usernames))
	for _, username := range usernames {
		acc := accounts[username]
		row := slugRow{User: username}
		if acc.Bound() {
			row.LoginMT = acc.LoginMT
			_, row.LastPacketExists = s.State.Latest(acc.LoginMT)
		}
		rows = append(rows, row)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "slugs": rows})
}

// -----------------------------------------------------------------------------

// getDiagUser returns one user's bound login and latest packet (or nulls).
func (s *WebServer) getDiagUser(c *gin.Context) {
	user := c.Param("user")

	resp := gin.H{
		"ok":         true,
		"user":       user,
		"loginMT":    nil,
		"lastPacket": nil,
		"marketOpen": nil,
	}

	if acc, ok := s.State.Account(user); ok && acc.Bound() {
		resp["loginMT"] = acc.LoginMT
		if pkt, ok := s.State.Latest(acc.LoginMT); ok {
			resp["lastPacket"] = pkt
			server := ""
			if pkt.Server != nil {
				server = *pkt.Server
			}
			resp["marketOpen"] = utils.GetMarketHours(server).IsOpen(time.Now())
		}
	}

	c.JSON(http.StatusOK, resp)
}

// -----------------------------------------------------------------------------

// getDiagReceived dumps the entire telemetry table, mainly to discover real
// logins before binding them.
func (s *WebServer) getDiagReceived(c *gin.Context) {
	latest := s.State.AllLatest()
	keys := make([]string, 0, len(latest))
	for login := range latest {
		keys = append(keys, login)
	}
	sort.Strings(keys)

	c.JSON(http.StatusOK, gin.H{"keys": keys, "data": latest})
}
