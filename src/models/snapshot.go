package models

// MStateSnapshot is the durable document: the full credential store plus the
// full binding store. The telemetry table is deliberately absent from it.
type MStateSnapshot struct {
	Users    map[string]string   `json:"users"`
	Accounts map[string]MAccount `json:"accounts"`
}

// -----------------------------------------------------------------------------

func NewStateSnapshot() *MStateSnapshot {
	return &MStateSnapshot{
		Users:    make(map[string]string),
		Accounts: make(map[string]MAccount),
	}
}
