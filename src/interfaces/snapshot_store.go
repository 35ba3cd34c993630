package interfaces

import "prop-backend/src/models"

// -----------------------------------------------------------------------------
// ISnapshotStore defines the contract for snapshot persistence.
// -----------------------------------------------------------------------------

type ISnapshotStore interface {

	// -----------------------------------------------------------------------------

	// Initialize prepares the backing store (schema, directories).
	Initialize() error

	// -----------------------------------------------------------------------------

	// Load reads the last written snapshot. A store that holds no snapshot
	// yet returns (nil, nil).
	Load() (*models.MStateSnapshot, error)

	// -----------------------------------------------------------------------------

	// Save rewrites the snapshot wholesale, replacing any prior content.
	Save(snap *models.MStateSnapshot) error

	// -----------------------------------------------------------------------------

	// Close releases the backing store.
	Close() error
}
