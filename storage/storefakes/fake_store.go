package storefakes

import (
	"sync"

	"github.com/fleetwatch/go-fleet-client/storage"
)

var _ storage.Store = (*FakeStore)(nil)

// FakeStore is an in-memory storage.Store for tests. The Fail* fields inject
// errors into the corresponding operation.
type FakeStore struct {
	FailGet    error
	FailSet    error
	FailDelete error

	values map[string][]byte
	lock   sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{values: make(map[string][]byte)}
}

func (fs *FakeStore) Get(key string) ([]byte, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	if fs.FailGet != nil {
		return nil, fs.FailGet
	}
	value, ok := fs.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

func (fs *FakeStore) Set(key string, value []byte) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.FailSet != nil {
		return fs.FailSet
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	fs.values[key] = copied
	return nil
}

func (fs *FakeStore) Delete(key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.FailDelete != nil {
		return fs.FailDelete
	}
	delete(fs.values, key)
	return nil
}

// Has reports whether a value is currently persisted under key.
func (fs *FakeStore) Has(key string) bool {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	_, ok := fs.values[key]
	return ok
}
