package server

import (
	"net/http"

	"prop-backend/src/helpers"
	"prop-backend/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// EA Ingestion Endpoint (POST /update)
// -----------------------------------------------------------------------------

func (s *WebServer) postUpdate(c *gin.Context) {
	pkt, err := s.ingestPacket(c)
	if err != nil {
		s.Logger.Warning("update rejected (request %s): %v", c.GetString("request_id"), err)
		c.JSON(helpers.HTTPStatus(err), gin.H{"ok": false, "error": err.Error()})
		return
	}

	s.Broadcast(pkt)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// -----------------------------------------------------------------------------

// ingestPacket checks the shared secret, normalizes the payload and
// replaces the telemetry entry for its login. No rate limiting, no size
// cap, no idempotency key: duplicates simply overwrite and the newest
// ReceivedAt wins.
func (s *WebServer) ingestPacket(c *gin.Context) (models.MTelemetryPacket, error) {
	secret := s.Config.EASharedSecret
	if secret == "" {
		return models.MTelemetryPacket{}, helpers.NewConfigurationError("EA_SHARED_SECRET missing")
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		// A broken body is treated as an empty one: the credential may
		// still arrive via header, and field checks below do the rest.
		body = map[string]any{}
	}

	apiKey := c.GetHeader("x-api-key")
	if apiKey == "" {
		apiKey = safeString(body, "apiKey")
	}
	if apiKey != secret {
		return models.MTelemetryPacket{}, helpers.NewAuthError("API key invalid")
	}

	login := safeString(body, "login")
	if login == "" {
		return models.MTelemetryPacket{}, helpers.NewValidationError("login missing")
	}

	platform := safeString(body, "platform")
	if platform == "" {
		platform = "MT5"
	}

	pkt := models.MTelemetryPacket{
		Platform:   platform,
		Login:      login,
		Server:     safeStringPtr(body, "server"),
		Name:       safeStringPtr(body, "name"),
		Balance:    safeFloatPtr(body, "balance"),
		Equity:     safeFloatPtr(body, "equity"),
		MarginFree: safeFloatPtr(body, "margin_free"),
		Positions:  safePositions(body, "positions"),
		ReportedAt: safeStringPtr(body, "timestamp"),
	}

	return s.State.UpsertTelemetry(pkt), nil
}
