package models

// MAccount is one row of the binding store: the association of an
// application user to an MT account login. An empty LoginMT means the user
// is provisioned but not yet bound to an account.
type MAccount struct {
	DisplayName string `json:"displayName"`
	LoginMT     string `json:"loginMT"`
}

// -----------------------------------------------------------------------------

// Bound reports whether the account has an MT login assigned.
func (a MAccount) Bound() bool {
	return a.LoginMT != ""
}
