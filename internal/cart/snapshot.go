package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	// StorageKey is the fixed slot the cart is persisted under.
	StorageKey      = "happyfeet-cart"
	SnapshotVersion = 1
)

var ErrInvalidSnapshot = errors.New("invalid cart snapshot")

// Snapshot is the persisted form of the cart.
type Snapshot struct {
	Version int    `json:"version"`
	Items   []Item `json:"items"`
}

func NewSnapshot(s State) Snapshot {
	items := s.Items
	if items == nil {
		items = []Item{}
	}
	return Snapshot{Version: SnapshotVersion, Items: items}
}

func (s Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, s.Version)
	}
	seen := make(map[LineKey]struct{}, len(s.Items))
	for i, it := range s.Items {
		switch {
		case it.ProductID == uuid.Nil:
			return fmt.Errorf("%w: item %d has no product id", ErrInvalidSnapshot, i)
		case it.Name == "":
			return fmt.Errorf("%w: item %d has no name", ErrInvalidSnapshot, i)
		case it.Price < 0:
			return fmt.Errorf("%w: item %d has a negative price", ErrInvalidSnapshot, i)
		case it.Quantity <= 0:
			return fmt.Errorf("%w: item %d has quantity %d", ErrInvalidSnapshot, i, it.Quantity)
		}
		if _, dup := seen[it.Key()]; dup {
			return fmt.Errorf("%w: item %d duplicates another line", ErrInvalidSnapshot, i)
		}
		seen[it.Key()] = struct{}{}
	}
	return nil
}

func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

func EncodeSnapshot(s State) ([]byte, error) {
	return json.Marshal(NewSnapshot(s))
}
