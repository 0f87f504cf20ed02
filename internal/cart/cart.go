package cart

import (
	"slices"

	"github.com/google/uuid"
)

// LineKey is the identity of a cart line: one product in one size.
type LineKey struct {
	ProductID uuid.UUID `json:"product_id"`
	Size      string    `json:"size"`
}

// Item is a cart line. Name, Price and Image are captured when the product
// is added and are not refreshed afterwards.
type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Image     string    `json:"image,omitempty"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity"`
}

func (i Item) Key() LineKey {
	return LineKey{ProductID: i.ProductID, Size: i.Size}
}

func (i Item) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

type State struct {
	Items []Item `json:"items"`
}

func (s State) TotalItems() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

func (s State) TotalPrice() int64 {
	var total int64
	for _, it := range s.Items {
		total += it.LineTotal()
	}
	return total
}

func (s State) Find(k LineKey) (Item, bool) {
	i := s.index(k)
	if i < 0 {
		return Item{}, false
	}
	return s.Items[i], true
}

func (s State) index(k LineKey) int {
	return slices.IndexFunc(s.Items, func(it Item) bool { return it.Key() == k })
}

// Action is one of AddItem, UpdateQuantity, RemoveItem, Clear or Hydrate.
type Action interface {
	isAction()
}

type AddItem struct{ Item Item }

type UpdateQuantity struct {
	Key      LineKey
	Quantity int
}

type RemoveItem struct{ Key LineKey }

type Clear struct{}

// Hydrate replaces the state with a validated snapshot read from storage.
type Hydrate struct{ Snapshot Snapshot }

func (AddItem) isAction()        {}
func (UpdateQuantity) isAction() {}
func (RemoveItem) isAction()     {}
func (Clear) isAction()          {}
func (Hydrate) isAction()        {}

// Reduce returns the state after a. The input state is never modified.
func Reduce(s State, a Action) State {
	items := slices.Clone(s.Items)

	switch a := a.(type) {
	case AddItem:
		it := a.Item
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		if i := s.index(it.Key()); i >= 0 {
			items[i].Quantity += it.Quantity
		} else {
			items = append(items, it)
		}
	case UpdateQuantity:
		i := s.index(a.Key)
		if i < 0 {
			break
		}
		if a.Quantity <= 0 {
			items = slices.Delete(items, i, i+1)
		} else {
			items[i].Quantity = a.Quantity
		}
	case RemoveItem:
		if i := s.index(a.Key); i >= 0 {
			items = slices.Delete(items, i, i+1)
		}
	case Clear:
		items = nil
	case Hydrate:
		items = slices.Clone(a.Snapshot.Items)
	}

	return State{Items: items}
}
