package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/happyfeet/storefront/pkg/logging"
)

// Store owns one browser's cart. Mutations are written to Storage only after
// Hydrate has run, so an empty initial state never overwrites a saved cart.
type Store struct {
	mu      sync.Mutex
	state   State
	storage Storage
	loaded  bool
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Hydrate loads the persisted cart. Unreadable or invalid data resets the
// cart to empty instead of failing; only storage errors are returned.
func (s *Store) Hydrate(ctx context.Context) error {
	log := logging.FromContext(ctx).With("svc", "cart")

	data, err := s.storage.Load(ctx, StorageKey)
	if err != nil {
		return err
	}

	snap := NewSnapshot(State{})
	if data != nil {
		decoded, err := DecodeSnapshot(data)
		if err != nil {
			log.Warn("cart_snapshot_reset", "reason", "invalid snapshot", "error", err)
		} else {
			snap = decoded
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, Hydrate{Snapshot: snap})
	s.loaded = true
	return nil
}

func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *Store) Dispatch(ctx context.Context, a Action) error {
	if _, ok := a.(Hydrate); ok {
		return errors.New("cart: hydrate through Store.Hydrate")
	}

	s.mu.Lock()
	s.state = Reduce(s.state, a)
	state, loaded := s.state, s.loaded
	s.mu.Unlock()

	if !loaded {
		return nil
	}
	data, err := EncodeSnapshot(state)
	if err != nil {
		return err
	}
	return s.storage.Save(ctx, StorageKey, data)
}

func (s *Store) Add(ctx context.Context, it Item) error {
	return s.Dispatch(ctx, AddItem{Item: it})
}

func (s *Store) UpdateQuantity(ctx context.Context, k LineKey, qty int) error {
	return s.Dispatch(ctx, UpdateQuantity{Key: k, Quantity: qty})
}

func (s *Store) Remove(ctx context.Context, k LineKey) error {
	return s.Dispatch(ctx, RemoveItem{Key: k})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.Dispatch(ctx, Clear{})
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Items: append([]Item(nil), s.state.Items...)}
}

func (s *Store) Items() []Item {
	return s.State().Items
}

func (s *Store) TotalItems() int {
	return s.State().TotalItems()
}

func (s *Store) TotalPrice() int64 {
	return s.State().TotalPrice()
}
