package catalog

import (
	"sync"
	"time"

	"github.com/happyfeet/storefront/internal/models"
)

const SearchDebounce = 300 * time.Millisecond

// History receives address-bar updates. Implementations must not call back
// into the Browser.
type History interface {
	Push(url string)
	Replace(url string)
}

// Browser holds a shop page's filter state and keeps History in step with it.
// Search input is debounced; every other transition applies immediately.
type Browser struct {
	mu       sync.Mutex
	path     string
	products []models.Product
	state    FilterState
	history  History
	debounce time.Duration
	timer    *time.Timer
	pending  string
	// gen identifies the armed timer; callbacks from older timers are ignored.
	gen uint64
}

func NewBrowser(path string, products []models.Product, initial FilterState, h History) *Browser {
	return &Browser{
		path:     path,
		products: products,
		state:    initial,
		history:  h,
		debounce: SearchDebounce,
	}
}

func (b *Browser) State() FilterState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Browser) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Apply(b.products, b.state)
}

func (b *Browser) SetProducts(products []models.Product) {
	b.mu.Lock()
	b.products = products
	b.mu.Unlock()
}

// Goto moves to next in one transition, as when a whole query arrives at once.
func (b *Browser) Goto(next FilterState) {
	b.apply(func(FilterState) FilterState { return next })
}

func (b *Browser) SetCategory(c string) {
	b.apply(func(s FilterState) FilterState { return s.WithCategory(c) })
}

func (b *Browser) SetPrice(p PriceBucket) {
	b.apply(func(s FilterState) FilterState { return s.WithPrice(p) })
}

func (b *Browser) SetSort(k SortKey) {
	b.apply(func(s FilterState) FilterState { return s.WithSort(k) })
}

func (b *Browser) LoadMore() { b.apply(FilterState.NextPage) }

func (b *Browser) RemoveFilter(key string) {
	b.apply(func(s FilterState) FilterState { return s.WithoutFilter(key) })
}

func (b *Browser) ClearAll() { b.apply(FilterState.Cleared) }

// TypeSearch records keystrokes; the search filter changes once input has
// been quiet for the debounce interval.
func (b *Browser) TypeSearch(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = text
	b.stopTimer()
	b.gen++
	gen := b.gen
	b.timer = time.AfterFunc(b.debounce, func() { b.fire(gen) })
}

func (b *Browser) fire(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen || b.timer == nil {
		return
	}
	b.flush()
}

// FlushSearch applies pending search input now.
func (b *Browser) FlushSearch() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer == nil {
		return
	}
	b.flush()
}

func (b *Browser) flush() {
	b.stopTimer()
	b.transition(b.state.WithSearch(b.pending))
}

// Close drops any pending search input.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimer()
}

func (b *Browser) stopTimer() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
}

func (b *Browser) apply(fn func(FilterState) FilterState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(fn(b.state))
}

func (b *Browser) transition(next FilterState) {
	if next == b.state {
		return
	}
	nav := Navigate(b.path, b.state, next)
	b.state = next
	if b.history == nil {
		return
	}
	if nav.Mode == HistoryPush {
		b.history.Push(nav.URL)
	} else {
		b.history.Replace(nav.URL)
	}
}
