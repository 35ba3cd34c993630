package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"prop-backend/src/logger"
	"prop-backend/src/models"
)

// -----------------------------------------------------------------------------

// JSONSnapshotStore keeps the whole snapshot in a single pretty-printed
// JSON document. Every save rewrites the file in full; the file written
// last wins.
type JSONSnapshotStore struct {
	Config *models.MConfig
	Path   string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewJSONSnapshotStore(cfg *models.MConfig, log *logger.Logger) (*JSONSnapshotStore, error) {
	return &JSONSnapshotStore{
		Config: cfg,
		Path:   cfg.Storage.DBPath,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (s *JSONSnapshotStore) Initialize() error {
	dir := filepath.Dir(s.Path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// -----------------------------------------------------------------------------

func (s *JSONSnapshotStore) Load() (*models.MStateSnapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var snap models.MStateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// -----------------------------------------------------------------------------

func (s *JSONSnapshotStore) Save(snap *models.MStateSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0644)
}

// -----------------------------------------------------------------------------

func (s *JSONSnapshotStore) Close() error {
	return nil
}
