package tokens

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/fleetwatch/go-fleet-client/storage"
)

// StorageKey is the fixed durable-storage key the serialized pair lives under.
const StorageKey = "auth.tokens"

// Store owns the current token pair. Storage and the in-memory reference are
// updated together or not at all: on a storage failure the in-memory state is
// left untouched and the error propagates.
type Store struct {
	storage storage.Store

	lock    sync.Mutex
	current *Pair
	loaded  bool
}

func NewStore(s storage.Store) (*Store, error) {
	if s == nil {
		return nil, errors.New("[NewStore] storage is required")
	}
	return &Store{storage: s}, nil
}

// Save persists the pair and updates the in-memory reference. A nil pair
// deletes the persisted entry and clears the reference.
func (s *Store) Save(pair *Pair) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if pair == nil {
		if err := s.storage.Delete(StorageKey); err != nil {
			return errors.Wrap(err, "[Store.Save] delete persisted pair")
		}
		s.current = nil
		s.loaded = true
		return nil
	}

	data, err := json.Marshal(pair)
	if err != nil {
		return errors.Wrap(err, "[Store.Save] marshal pair")
	}
	if err := s.storage.Set(StorageKey, data); err != nil {
		return errors.Wrap(err, "[Store.Save] persist pair")
	}
	copied := *pair
	s.current = &copied
	s.loaded = true
	return nil
}

// Current returns the in-memory pair if set, lazily loading it from storage
// exactly once otherwise. Returns nil when nothing is persisted.
func (s *Store) Current() (*Pair, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.loaded {
		return s.current, nil
	}

	data, err := s.storage.Get(StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		s.loaded = true
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Current] load persisted pair")
	}

	var pair Pair
	if err := json.Unmarshal(data, &pair); err != nil {
		return nil, errors.Wrap(err, "[Store.Current] unmarshal persisted pair")
	}
	s.current = &pair
	s.loaded = true
	return s.current, nil
}
