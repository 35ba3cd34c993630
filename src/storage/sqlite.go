package storage

import (
	"database/sql"
	"fmt"

	"prop-backend/src/logger"
	"prop-backend/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteSnapshotStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteSnapshotStore(cfg *models.MConfig, log *logger.Logger) (*SQLiteSnapshotStore, error) {
	return &SQLiteSnapshotStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteSnapshotStore) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

// createTables keeps existing rows: unlike the telemetry table, the
// snapshot must survive restarts.
func (d *SQLiteSnapshotStore) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS accounts (
			username TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			login_mt TEXT NOT NULL DEFAULT ''
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create accounts: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteSnapshotStore) Load() (*models.MStateSnapshot, error) {
	snap := models.NewStateSnapshot()

	rows, err := d.DB.Query("SELECT username, password FROM users")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var username, password string
		if err := rows.Scan(&username, &password); err != nil {
			return nil, err
		}
		snap.Users[username] = password
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	accRows, err := d.DB.Query("SELECT username, display_name, login_mt FROM accounts")
	if err != nil {
		return nil, err
	}
	defer accRows.Close()
	for accRows.Next() {
		var username string
		var acc models.MAccount
		if err := accRows.Scan(&username, &acc.DisplayName, &acc.LoginMT); err != nil {
			return nil, err
		}
		snap.Accounts[username] = acc
	}
	if err := accRows.Err(); err != nil {
		return nil, err
	}

	// Empty tables mean no snapshot has been written yet
	if len(snap.Users) == 0 && len(snap.Accounts) == 0 {
		return nil, nil
	}
	return snap, nil
}

// -----------------------------------------------------------------------------

// Save replaces both tables in one transaction, mirroring the wholesale
// rewrite of the document store.
func (d *SQLiteSnapshotStore) Save(snap *models.MStateSnapshot) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM users"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM accounts"); err != nil {
		return err
	}

	userStmt, err := tx.Prepare("INSERT INTO users (username, password) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer userStmt.Close()
	for username, password := range snap.Users {
		if _, err := userStmt.Exec(username, password); err != nil {
			return err
		}
	}

	accStmt, err := tx.Prepare("INSERT INTO accounts (username, display_name, login_mt) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer accStmt.Close()
	for username, acc := range snap.Accounts {
		if _, err := accStmt.Exec(username, acc.DisplayName, acc.LoginMT); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteSnapshotStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
