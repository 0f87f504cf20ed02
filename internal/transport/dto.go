package transport

import "github.com/google/uuid"

type CreateProductRequest struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Price       int64    `json:"price"`
	Categories  []string `json:"categories"`
	Images      []string `json:"images"`
	Sizes       []string `json:"sizes"`
	Description string   `json:"description"`
	Featured    bool     `json:"featured"`
}

// PatchProductRequest leaves nil fields untouched.
type PatchProductRequest struct {
	Name        *string   `json:"name"`
	Slug        *string   `json:"slug"`
	Price       *int64    `json:"price"`
	Categories  *[]string `json:"categories"`
	Images      *[]string `json:"images"`
	Sizes       *[]string `json:"sizes"`
	Description *string   `json:"description"`
	Featured    *bool     `json:"featured"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PatchCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type PatchOrderRequest struct {
	Status string `json:"status"`
}

type BulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity"`
}

type UpdateCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity"`
}

type RemoveCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Size      string    `json:"size"`
}

type CheckoutRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}
