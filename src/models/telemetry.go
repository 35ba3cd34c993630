package models

import "time"

// -----------------------------------------------------------------------------
// Telemetry Table Row (Matches EA payload)
// -----------------------------------------------------------------------------

// MTelemetryPacket is the latest status report pushed by the EA for one
// account login. Held in memory only: replace-on-write, no history, lost on
// restart. Optional fields stay nil (JSON null) when the agent omits them.
type MTelemetryPacket struct {
	Platform   string    `json:"platform"`
	Login      string    `json:"login"`
	Server     *string   `json:"server"`
	Name       *string   `json:"name"`
	Balance    *float64  `json:"balance"`
	Equity     *float64  `json:"equity"`
	MarginFree *float64  `json:"margin_free"`
	Positions  []any     `json:"positions"`
	ReceivedAt time.Time `json:"receivedAt"`
	ReportedAt *string   `json:"reportedAt"`
}
