package catalog

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordedHistory struct {
	mu      sync.Mutex
	entries []Navigation
}

func (h *recordedHistory) Push(u string) { h.add(HistoryPush, u) }

func (h *recordedHistory) Replace(u string) { h.add(HistoryReplace, u) }

func (h *recordedHistory) add(m HistoryMode, u string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, Navigation{Mode: m, URL: u})
}

func (h *recordedHistory) all() []Navigation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Navigation(nil), h.entries...)
}

func TestBrowserHistory(t *testing.T) {
	h := &recordedHistory{}
	b := NewBrowser("/shop", fixtures(), DefaultFilterState(), h)
	defer b.Close()

	b.SetCategory("Heels")
	b.SetSort(SortPriceAsc)
	b.SetSort(SortPriceAsc)
	b.LoadMore()
	b.ClearAll()

	assert.Equal(t, []Navigation{
		{Mode: HistoryPush, URL: "/shop?category=Heels"},
		{Mode: HistoryReplace, URL: "/shop?category=Heels&sort=price-asc"},
		{Mode: HistoryReplace, URL: "/shop?category=Heels&page=2&sort=price-asc"},
		{Mode: HistoryPush, URL: "/shop"},
	}, h.all())
}

func TestBrowserSearchDebounce(t *testing.T) {
	h := &recordedHistory{}
	b := NewBrowser("/shop", fixtures(), DefaultFilterState(), h)
	b.debounce = 20 * time.Millisecond
	defer b.Close()

	b.TypeSearch("b")
	b.TypeSearch("bo")
	b.TypeSearch("boots")
	assert.Empty(t, h.all())

	assert.Eventually(t, func() bool { return b.State().Search == "boots" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []Navigation{{Mode: HistoryReplace, URL: "/shop?q=boots"}}, h.all())
	assert.Equal(t, []string{"Ankle Boots"}, names(b.View().Items))
}

func TestBrowserFlushSearch(t *testing.T) {
	b := NewBrowser("/shop", fixtures(), DefaultFilterState(), nil)
	b.debounce = time.Hour
	defer b.Close()

	b.TypeSearch("sandals")
	assert.Empty(t, b.State().Search)
	b.FlushSearch()
	assert.Equal(t, "sandals", b.State().Search)

	b.RemoveFilter(ParamSearch)
	assert.Empty(t, b.State().Search)
}

func TestBrowserIgnoresStaleTimer(t *testing.T) {
	b := NewBrowser("/shop", fixtures(), DefaultFilterState(), nil)
	b.debounce = time.Hour
	defer b.Close()

	b.TypeSearch("bo")
	b.mu.Lock()
	stale := b.gen
	b.mu.Unlock()

	b.TypeSearch("boots")
	b.fire(stale)
	assert.Empty(t, b.State().Search)

	b.mu.Lock()
	current := b.gen
	armed := b.timer != nil
	b.mu.Unlock()
	assert.True(t, armed)

	b.fire(current)
	assert.Equal(t, "boots", b.State().Search)
}

func TestBrowserGoto(t *testing.T) {
	h := &recordedHistory{}
	b := NewBrowser("/shop", fixtures(), DefaultFilterState().WithCategory("Heels"), h)
	defer b.Close()

	b.Goto(DefaultFilterState().WithCategory("Heels").WithPrice(PriceOver))
	b.Goto(DefaultFilterState().WithCategory("Boots"))
	b.Goto(DefaultFilterState().WithCategory("Boots"))

	assert.Equal(t, []Navigation{
		{Mode: HistoryReplace, URL: "/shop?category=Heels&price=over-6000"},
		{Mode: HistoryPush, URL: "/shop?category=Boots"},
	}, h.all())
}
