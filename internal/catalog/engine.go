package catalog

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/happyfeet/storefront/internal/models"
)

type View struct {
	Items   []models.Product `json:"items"`
	Total   int              `json:"total"`
	Shown   int              `json:"shown"`
	Page    int              `json:"page"`
	HasMore bool             `json:"has_more"`
}

func Matches(p models.Product, s FilterState) bool {
	if s.Category != AllCategories && !hasCategory(p, s.Category) {
		return false
	}
	if s.Search != "" {
		q := strings.ToLower(s.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	return s.Price.Contains(p.Price)
}

func hasCategory(p models.Product, category string) bool {
	for _, c := range p.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

func Filter(products []models.Product, s FilterState) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if Matches(p, s) {
			out = append(out, p)
		}
	}
	return out
}

// Sort orders products in place. The sort is stable.
func Sort(products []models.Product, key SortKey) {
	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(products, func(a, b models.Product) int {
			return cmpInt64(a.Price, b.Price)
		})
	case SortPriceDesc:
		slices.SortStableFunc(products, func(a, b models.Product) int {
			return cmpInt64(b.Price, a.Price)
		})
	case SortNameAsc:
		col := collate.New(language.English, collate.IgnoreCase)
		slices.SortStableFunc(products, func(a, b models.Product) int {
			return col.CompareString(a.Name, b.Name)
		})
	default:
		slices.SortStableFunc(products, func(a, b models.Product) int {
			if a.Featured != b.Featured {
				if a.Featured {
					return -1
				}
				return 1
			}
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Apply derives the visible slice of the catalog. The input is not modified.
func Apply(products []models.Product, s FilterState) View {
	page := s.Page
	if page < 1 {
		page = 1
	}

	matched := Filter(products, s)
	Sort(matched, s.Sort)

	limit := len(matched)
	if page <= (len(matched)+PageSize-1)/PageSize {
		limit = page * PageSize
	}
	limit = min(limit, len(matched))

	return View{
		Items:   matched[:limit],
		Total:   len(matched),
		Shown:   limit,
		Page:    page,
		HasMore: limit < len(matched),
	}
}
