package state

import (
	"sort"
	"sync"
	"time"

	"prop-backend/src/helpers"
	"prop-backend/src/interfaces"
	"prop-backend/src/logger"
	"prop-backend/src/models"
)

// -----------------------------------------------------------------------------
// Seed Data
// -----------------------------------------------------------------------------

// Built-in entries from the pilot deployment. The snapshot merges over
// these at startup: keys present in the file win, the rest stay.
func seedUsers() map[string]string {
	return map[string]string{
		"admin":           "admin123",
		"marco.sabelli":   "marco123",
		"alessio.gallina": "alessio123",
	}
}

func seedAccounts() map[string]models.MAccount {
	return map[string]models.MAccount{
		"marco.sabelli":   {DisplayName: "Marco Sabelli", LoginMT: "95474178"},
		"alessio.gallina": {DisplayName: "Alessio Gallina", LoginMT: "5012345678"},
	}
}

// -----------------------------------------------------------------------------
// AppState
// -----------------------------------------------------------------------------

// AppState owns the three in-memory stores: credentials (username to
// password), account bindings (username to MAccount) and the telemetry
// table (MT login to latest packet). One instance is created at startup and
// passed by reference to every handler. A single RWMutex guards the maps;
// semantics stay last-write-wins, nothing stronger.
type AppState struct {
	mu       sync.RWMutex
	users    map[string]string
	accounts map[string]models.MAccount
	latest   map[string]models.MTelemetryPacket

	store  interfaces.ISnapshotStore
	logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAppState(store interfaces.ISnapshotStore, log *logger.Logger) *AppState {
	return &AppState{
		users:    seedUsers(),
		accounts: seedAccounts(),
		latest:   make(map[string]models.MTelemetryPacket),
		store:    store,
		logger:   log,
	}
}

// -----------------------------------------------------------------------------
// Snapshot Persistence
// -----------------------------------------------------------------------------

// Restore merges the persisted snapshot over the seeds. A missing or broken
// snapshot leaves the seeds in place; startup never aborts on it.
func (s *AppState) Restore() {
	snap, err := s.store.Load()
	if err != nil {
		s.logger.Error("Loading snapshot: %v", err)
		return
	}
	if snap == nil {
		s.logger.Info("No snapshot found, starting from seed data")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for username, password := range snap.Users {
		s.users[username] = password
	}
	for username, acc := range snap.Accounts {
		s.accounts[username] = acc
	}
	s.logger.Info("Snapshot restored: %d users, %d accounts", len(snap.Users), len(snap.Accounts))
}

// -----------------------------------------------------------------------------

// Snapshot returns a deep copy of the persisted stores.
func (s *AppState) Snapshot() *models.MStateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *AppState) snapshotLocked() *models.MStateSnapshot {
	snap := models.NewStateSnapshot()
	for username, password := range s.users {
		snap.Users[username] = password
	}
	for username, acc := range s.accounts {
		snap.Accounts[username] = acc
	}
	return snap
}

// persistLocked rewrites the snapshot; callers hold mu. Write failures are
// logged and swallowed: the in-memory stores stay authoritative, only
// restart durability is at risk.
func (s *AppState) persistLocked() {
	if err := s.store.Save(s.snapshotLocked()); err != nil {
		s.logger.Error("%v", helpers.NewPersistenceError("saving snapshot", err))
	}
}

// -----------------------------------------------------------------------------
// Credential Store
// -----------------------------------------------------------------------------

// Authenticate checks a username/password pair against the credential
// store. Plaintext compare, per the pilot contract.
func (s *AppState) Authenticate(username, password string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.users[username]
	return ok && stored == password
}

// -----------------------------------------------------------------------------

// CreateUser inserts or overwrites a credential entry and provisions an
// unbound account row if none exists yet. Persists on success.
func (s *AppState) CreateUser(username, password, displayName string) error {
	if username == "" || password == "" {
		return helpers.NewValidationError("username and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[username] = password
	if _, ok := s.accounts[username]; !ok {
		if displayName == "" {
			displayName = username
		}
		s.accounts[username] = models.MAccount{DisplayName: displayName}
	}

	s.persistLocked()
	return nil
}

// -----------------------------------------------------------------------------

// Usernames returns every provisioned username, sorted.
func (s *AppState) Usernames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.users))
	for username := range s.users {
		names = append(names, username)
	}
	sort.Strings(names)
	return names
}

// -----------------------------------------------------------------------------
// Binding Store
// -----------------------------------------------------------------------------

// Bind assigns an MT login to a user, creating the account row on first
// bind. The login is overwritten unconditionally: the bind view filters
// already-taken logins but the data layer does not enforce uniqueness
// (confirm with the system owner before tightening). Persists on success.
func (s *AppState) Bind(username, loginMT string) error {
	if username == "" || loginMT == "" {
		return helpers.NewValidationError("user and login are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[username]
	if !ok {
		acc = models.MAccount{DisplayName: username}
	}
	acc.LoginMT = loginMT
	s.accounts[username] = acc

	s.persistLocked()
	return nil
}

// -----------------------------------------------------------------------------

// Account returns the binding row for a username.
func (s *AppState) Account(username string) (models.MAccount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[username]
	return acc, ok
}

// -----------------------------------------------------------------------------

// Accounts returns a copy of the whole binding store.
func (s *AppState) Accounts() map[string]models.MAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.MAccount, len(s.accounts))
	for username, acc := range s.accounts {
		out[username] = acc
	}
	return out
}

// -----------------------------------------------------------------------------

// UnassignedLogins computes the MT logins seen in the telemetry table that
// no binding references yet. Recomputed fresh on every call; sorted so
// views are deterministic.
func (s *AppState) UnassignedLogins() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assigned := make(map[string]struct{}, len(s.accounts))
	for _, acc := range s.accounts {
		if acc.LoginMT != "" {
			assigned[acc.LoginMT] = struct{}{}
		}
	}

	free := make([]string, 0)
	for login := range s.latest {
		if _, taken := assigned[login]; !taken {
			free = append(free, login)
		}
	}
	sort.Strings(free)
	return free
}

// -----------------------------------------------------------------------------
// Telemetry Table
// -----------------------------------------------------------------------------

// UpsertTelemetry stamps ReceivedAt with the server clock and replaces (not
// merges) the packet stored for its login. The snapshot save here does not
// change the persisted stores; it is kept for behavioral parity with the
// original process.
func (s *AppState) UpsertTelemetry(pkt models.MTelemetryPacket) models.MTelemetryPacket {
	pkt.ReceivedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[pkt.Login] = pkt
	s.persistLocked()
	return pkt
}

// -----------------------------------------------------------------------------

// Latest returns the newest packet for an MT login.
func (s *AppState) Latest(loginMT string) (models.MTelemetryPacket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pkt, ok := s.latest[loginMT]
	return pkt, ok
}

// -----------------------------------------------------------------------------

// AllLatest returns a copy of the whole telemetry table.
func (s *AppState) AllLatest() map[string]models.MTelemetryPacket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.MTelemetryPacket, len(s.latest))
	for login, pkt := range s.latest {
		out[login] = pkt
	}
	return out
}
