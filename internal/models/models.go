package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Slug        string    `gorm:"uniqueIndex;not null"      json:"slug"`
	Name        string    `gorm:"not null"                  json:"name"`
	Price       int64     `gorm:"not null;check:price >= 0" json:"price"`
	Categories  []string  `gorm:"type:text;serializer:json" json:"categories"`
	Images      []string  `gorm:"type:text;serializer:json" json:"images"`
	Sizes       []string  `gorm:"type:text;serializer:json" json:"sizes"`
	Description string    `gorm:"type:text"                 json:"description,omitempty"`
	Featured    bool      `gorm:"not null;default:false"    json:"featured"`
	CreatedAt   time.Time `gorm:"index"                     json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"            json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text"            json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime"       json:"created_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Order struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"                           json:"id"`
	CustomerName string      `gorm:"not null"                                       json:"customer_name"`
	Phone        string      `gorm:"not null"                                       json:"phone"`
	Location     string      `gorm:"not null"                                       json:"location"`
	Notes        string      `gorm:"type:text"                                      json:"notes,omitempty"`
	Total        int64       `gorm:"not null"                                       json:"total"`
	Status       OrderStatus `gorm:"not null;index"                                 json:"status"`
	CreatedAt    time.Time   `gorm:"index"                                          json:"created_at"`
	Items        []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem keeps the product name and unit price as they were at purchase.
type OrderItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"        json:"id"`
	OrderID     uuid.UUID  `gorm:"type:uuid;index;not null"    json:"order_id"`
	ProductID   *uuid.UUID `gorm:"type:uuid;index"             json:"product_id"`
	ProductName string     `gorm:"not null"                    json:"product_name"`
	Price       int64      `gorm:"not null"                    json:"price"`
	Size        string     `gorm:"size:32"                     json:"size"`
	Quantity    int        `gorm:"not null;check:quantity > 0" json:"quantity"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type AdminUser struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null"             json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime"       json:"created_at"`
}

func (u *AdminUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"               json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"     json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null"     json:"jti"`
	ExpiresAt int64     `gorm:"not null"                 json:"expires_at"`
	Revoked   bool      `gorm:"default:false"            json:"revoked"`
}

// CartSnapshot is the server-side stand-in for a browser's local storage slot.
type CartSnapshot struct {
	SessionID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Slot      string    `gorm:"primaryKey"`
	Data      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&Product{},
		&Category{},
		&Order{},
		&OrderItem{},
		&AdminUser{},
		&RefreshToken{},
		&CartSnapshot{},
	}
}
