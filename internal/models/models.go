package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipping   = "shipping"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// OrderStatuses is the full set accepted by the status endpoint.
var OrderStatuses = map[string]bool{
	OrderStatusPending:    true,
	OrderStatusProcessing: true,
	OrderStatusShipping:   true,
	OrderStatusDelivered:  true,
	OrderStatusCancelled:  true,
}

type Category struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"not null"                 json:"name"`
	Description string `json:"description"`
	Slug        string `gorm:"uniqueIndex;not null"     json:"slug"`
}

type Product struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"not null"                 json:"name"`
	Description   string    `json:"description"`
	Brand         string    `json:"brand"`
	Price         float64   `gorm:"not null"                 json:"price"`
	PriceDiscount float64   `json:"price_discount"`
	CategoryID    uint      `gorm:"index;not null"           json:"category_id"`
	Slug          string    `gorm:"uniqueIndex;not null"     json:"slug"`
	Variants      []Variant `gorm:"constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	Stock         uint      `gorm:"-"                        json:"stock"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ComputeStock fills the derived Stock field from the loaded variant sizes.
// Per-size rows are the only authoritative counter.
func (p *Product) ComputeStock() {
	var total uint
	for _, v := range p.Variants {
		for _, s := range v.Sizes {
			total += s.Stock
		}
	}
	p.Stock = total
}

type Variant struct {
	ID        uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint                        `gorm:"index;not null"           json:"product_id"`
	Color     string                      `gorm:"not null"                 json:"color"`
	Images    datatypes.JSONSlice[string] `json:"images"`
	Sizes     []Size                      `gorm:"constraint:OnDelete:CASCADE" json:"sizes"`
}

type Size struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	VariantID uint   `gorm:"index;not null"           json:"variant_id"`
	Size      string `gorm:"not null"                 json:"size"`
	Stock     uint   `json:"stock"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_line" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_line" json:"product_id"`
	Color     string    `gorm:"uniqueIndex:idx_cart_line" json:"color"`
	Size      string    `gorm:"uniqueIndex:idx_cart_line" json:"size"`
	Quantity  uint      `gorm:"default:1;check:quantity>0" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Order struct {
	ID            uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint        `gorm:"index;not null" json:"user_id"`
	FullName      string      `gorm:"not null"       json:"full_name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Address       string      `gorm:"not null"       json:"address"`
	City          string      `json:"city"`
	Note          string      `json:"note"`
	PaymentMethod string      `json:"payment_method"`
	Status        string      `gorm:"not null;default:pending" json:"status"`
	TotalAmount   float64     `gorm:"not null"       json:"total_amount"`
	Items         []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// OrderItem is a snapshot of a cart line at placement time. Price is copied
// from the product and never follows later product edits.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint    `gorm:"index;not null" json:"order_id"`
	ProductID uint    `gorm:"not null"       json:"product_id"`
	Quantity  uint    `gorm:"default:1;check:quantity>0" json:"quantity"`
	Price     float64 `gorm:"not null"       json:"price"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null"             json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `gorm:"not null;default:user" json:"role"`
	Status       string    `gorm:"not null;default:active" json:"status"`
	Gender       string    `json:"gender"`
	Phone        string    `json:"phone"`
	Addresses    []Address `gorm:"constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Address struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint   `gorm:"index;not null" json:"user_id"`
	Street    string `gorm:"not null"       json:"street"`
	City      string `json:"city"`
	District  string `json:"district"`
	Ward      string `json:"ward"`
	Country   string `json:"country"`
	IsDefault bool   `json:"is_default"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Token     string `gorm:"uniqueIndex;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"       json:"user_id"`
	Role      string `json:"role"`
	ExpiresAt int64  `gorm:"not null"             json:"expires_at"`
	Revoked   bool   `gorm:"default:false"        json:"revoked"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
}
