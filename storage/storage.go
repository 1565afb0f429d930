// Package storage provides persistent model state storage for prediction
// tasks. It uses BoltDB as the underlying storage engine to store serialized
// model parameters keyed by model name, so fitted estimators can be saved
// once and loaded back as pretrained models later.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const modelsBucket = "models" // Bucket name for serialized model state

// ErrModelNotFound is returned when a model name has no saved state.
var ErrModelNotFound = errors.New("no saved state for model")

// ModelStore persists model state records in a BoltDB database.
type ModelStore struct {
	db *bbolt.DB
}

// Open opens (or creates) a model store at the given path.
func Open(path string) (*ModelStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open model store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(modelsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create models bucket: %w", err)
	}

	return &ModelStore{db: db}, nil
}

// Close closes the underlying database.
func (s *ModelStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save serializes state as JSON and stores it under the model name.
func (s *ModelStore) Save(name string, state any) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(modelsBucket))

		payload, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("marshal model state: %w", err)
		}
		return b.Put([]byte(name), payload)
	})
}

// Load reads the state stored under the model name into state. Returns
// ErrModelNotFound when the name has never been saved.
func (s *ModelStore) Load(name string, state any) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(modelsBucket))

		payload := b.Get([]byte(name))
		if payload == nil {
			return fmt.Errorf("%w: %s", ErrModelNotFound, name)
		}
		if err := json.Unmarshal(payload, state); err != nil {
			return fmt.Errorf("unmarshal model state: %w", err)
		}
		return nil
	})
}

// SaveModel is a convenience wrapper that opens the store at path, saves
// one record and closes it again.
func SaveModel(path, name string, state any) error {
	store, err := Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(name, state)
}

// LoadModel is a convenience wrapper that opens the store at path, loads
// one record and closes it again.
func LoadModel(path, name string, state any) error {
	store, err := Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Load(name, state)
}
