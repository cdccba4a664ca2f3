package inmemorystore

import (
	"context"
	"sync"

	"github.com/vk/flowcalc/internal/node"
	"github.com/vk/flowcalc/internal/nodestore"
)

// Store is an in-memory implementation of nodestore.Store using sync.Map.
type Store struct {
	states sync.Map // Key: node ID, Value: node.Status
	errors sync.Map // Key: node ID, Value: error
}

// New creates a new, empty in-memory node state store.
func New() nodestore.Store {
	return &Store{}
}

// SetStatus updates the evaluation status of a specific node.
func (s *Store) SetStatus(ctx context.Context, id string, status node.Status) error {
	s.states.Store(id, status)
	return nil
}

// GetStatus retrieves the evaluation status of a specific node.
// If a status has not been set, it returns StatusPending.
func (s *Store) GetStatus(ctx context.Context, id string) (node.Status, error) {
	status, ok := s.states.Load(id)
	if !ok {
		return node.StatusPending, nil
	}
	return status.(node.Status), nil
}

// SetError records the latest failure of a node; nil clears it.
func (s *Store) SetError(ctx context.Context, id string, nodeErr error) error {
	if nodeErr == nil {
		s.errors.Delete(id)
		return nil
	}
	s.errors.Store(id, nodeErr)
	return nil
}

// GetError retrieves the recorded error of a node.
func (s *Store) GetError(ctx context.Context, id string) (error, error) {
	err, ok := s.errors.Load(id)
	if !ok {
		return nil, nil // If not found, there is no error.
	}
	return err.(error), nil
}

// Delete removes the status and error of a node.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.states.Delete(id)
	s.errors.Delete(id)
	return nil
}

// Reset removes every entry.
func (s *Store) Reset(ctx context.Context) error {
	s.states.Clear()
	s.errors.Clear()
	return nil
}
