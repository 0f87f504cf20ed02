package catalog

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	// AllCategories disables the category filter.
	AllCategories = "All"
	PageSize      = 24
	// MaxPage keeps the cumulative limit Page*PageSize within int.
	MaxPage = math.MaxInt / PageSize

	PriceThresholdLow  int64 = 4000
	PriceThresholdHigh int64 = 6000
)

// Query-string keys.
const (
	ParamCategory = "category"
	ParamSearch   = "q"
	ParamPrice    = "price"
	ParamSort     = "sort"
	ParamPage     = "page"
)

type PriceBucket string

const (
	PriceAll   PriceBucket = "all"
	PriceUnder PriceBucket = "under-4000"
	PriceMid   PriceBucket = "4000-6000"
	PriceOver  PriceBucket = "over-6000"
)

func (b PriceBucket) Valid() bool {
	switch b {
	case PriceAll, PriceUnder, PriceMid, PriceOver:
		return true
	}
	return false
}

func (b PriceBucket) Contains(price int64) bool {
	switch b {
	case PriceUnder:
		return price < PriceThresholdLow
	case PriceMid:
		return price >= PriceThresholdLow && price <= PriceThresholdHigh
	case PriceOver:
		return price > PriceThresholdHigh
	default:
		return true
	}
}

func (b PriceBucket) Label() string {
	switch b {
	case PriceUnder:
		return "Under 4,000"
	case PriceMid:
		return "4,000 - 6,000"
	case PriceOver:
		return "Over 6,000"
	default:
		return "All prices"
	}
}

type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNameAsc   SortKey = "name-asc"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortFeatured, SortPriceAsc, SortPriceDesc, SortNameAsc:
		return true
	}
	return false
}

// FilterState is the typed form of the shop's query string. Page is
// cumulative: page N shows the first N*PageSize matches.
type FilterState struct {
	Category string      `json:"category"`
	Search   string      `json:"search"`
	Price    PriceBucket `json:"price"`
	Sort     SortKey     `json:"sort"`
	Page     int         `json:"page"`
}

func DefaultFilterState() FilterState {
	return FilterState{
		Category: AllCategories,
		Search:   "",
		Price:    PriceAll,
		Sort:     SortFeatured,
		Page:     1,
	}
}

// ParseFilterState never fails: every missing or malformed field falls back
// to its default.
func ParseFilterState(v url.Values) FilterState {
	s := DefaultFilterState()
	s.Category = normalizeCategory(v.Get(ParamCategory))
	s.Search = strings.TrimSpace(v.Get(ParamSearch))

	if p := PriceBucket(strings.ToLower(strings.TrimSpace(v.Get(ParamPrice)))); p.Valid() {
		s.Price = p
	}
	if k := SortKey(strings.ToLower(strings.TrimSpace(v.Get(ParamSort)))); k.Valid() {
		s.Sort = k
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v.Get(ParamPage))); err == nil && n > 1 {
		s.Page = min(n, MaxPage)
	}
	return s
}

func normalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	if c == "" || strings.EqualFold(c, AllCategories) {
		return AllCategories
	}
	return c
}

func (s FilterState) WithCategory(c string) FilterState {
	s.Category = normalizeCategory(c)
	s.Page = 1
	return s
}

func (s FilterState) WithSearch(q string) FilterState {
	s.Search = strings.TrimSpace(q)
	s.Page = 1
	return s
}

func (s FilterState) WithPrice(b PriceBucket) FilterState {
	if !b.Valid() {
		b = PriceAll
	}
	s.Price = b
	s.Page = 1
	return s
}

func (s FilterState) WithSort(k SortKey) FilterState {
	if !k.Valid() {
		k = SortFeatured
	}
	s.Sort = k
	s.Page = 1
	return s
}

// NextPage is the only transition that keeps the page counter.
func (s FilterState) NextPage() FilterState {
	s.Page++
	return s
}

func (s FilterState) Cleared() FilterState {
	return DefaultFilterState()
}

func (s FilterState) IsDefault() bool {
	return s == DefaultFilterState()
}
