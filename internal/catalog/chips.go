package catalog

import "fmt"

// Chip describes one removable active filter.
type Chip struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

func ActiveFilters(s FilterState) []Chip {
	chips := make([]Chip, 0, 3)
	if s.Category != AllCategories {
		chips = append(chips, Chip{Key: ParamCategory, Label: s.Category})
	}
	if s.Search != "" {
		chips = append(chips, Chip{Key: ParamSearch, Label: fmt.Sprintf("Search: %q", s.Search)})
	}
	if s.Price != PriceAll {
		chips = append(chips, Chip{Key: ParamPrice, Label: s.Price.Label()})
	}
	return chips
}

// WithoutFilter clears the filter behind a chip. Unknown keys only reset the page.
func (s FilterState) WithoutFilter(key string) FilterState {
	switch key {
	case ParamCategory:
		return s.WithCategory(AllCategories)
	case ParamSearch:
		return s.WithSearch("")
	case ParamPrice:
		return s.WithPrice(PriceAll)
	case ParamSort:
		return s.WithSort(SortFeatured)
	}
	s.Page = 1
	return s
}
