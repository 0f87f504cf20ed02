package catalog

import (
	"net/url"
	"strconv"
)

type HistoryMode string

const (
	HistoryPush    HistoryMode = "push"
	HistoryReplace HistoryMode = "replace"
)

type Navigation struct {
	Mode HistoryMode `json:"mode"`
	URL  string      `json:"url"`
}

// Values omits every field that is at its default.
func (s FilterState) Values() url.Values {
	v := url.Values{}
	if s.Category != AllCategories && s.Category != "" {
		v.Set(ParamCategory, s.Category)
	}
	if s.Search != "" {
		v.Set(ParamSearch, s.Search)
	}
	if s.Price != PriceAll && s.Price != "" {
		v.Set(ParamPrice, string(s.Price))
	}
	if s.Sort != SortFeatured && s.Sort != "" {
		v.Set(ParamSort, string(s.Sort))
	}
	if s.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(s.Page))
	}
	return v
}

func QueryString(s FilterState) string {
	return s.Values().Encode()
}

func (s FilterState) URL(path string) string {
	if q := QueryString(s); q != "" {
		return path + "?" + q
	}
	return path
}

// Navigate picks the history operation for a state change: a category
// change is pushed so back/forward walk between categories, everything
// else replaces the current entry.
func Navigate(path string, prev, next FilterState) Navigation {
	mode := HistoryReplace
	if prev.Category != next.Category {
		mode = HistoryPush
	}
	return Navigation{Mode: mode, URL: next.URL(path)}
}
