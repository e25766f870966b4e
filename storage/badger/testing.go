package badger

import (
	"context"

	"github.com/poiesic/vesselflow/storage"
)

// NewMemoryStore creates an in-memory store for testing.
// Returns the store, its opener, and the backend.
// Caller must close the backend when done.
func NewMemoryStore() (storage.Store, *Opener, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}

	opener := NewOpener(backend)
	st, err := opener.Open(context.Background())
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}

	return st, opener, backend, nil
}
