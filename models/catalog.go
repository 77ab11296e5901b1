package models

import (
	"github.com/shopspring/decimal"
)

// Product categories understood by the API. CategoryAll is a UI sentinel that
// means "no category filter".
const (
	CategorySnacks  = "MAKANAN_RINGAN"
	CategoryCookies = "KUE_KERING"
	CategoryAll     = "ALL"
)

type Product struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Packaging   string          `json:"packaging,omitempty"`
	Weight      string          `json:"weight,omitempty"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
}

// ProductForm is the admin create/update payload, sent to the API as multipart.
type ProductForm struct {
	Name        string `form:"name" validate:"required"`
	Price       int64  `form:"price" validate:"required,gt=0"`
	Stock       int    `form:"stock" validate:"gte=0"`
	Category    string `form:"category" validate:"required,oneof=MAKANAN_RINGAN KUE_KERING"`
	Packaging   string `form:"packaging"`
	Weight      string `form:"weight"`
	Description string `form:"description"`
}

type CartItem struct {
	ID        ID              `json:"id"`
	ProductID ID              `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Product   *Product        `json:"product,omitempty"`
}

// AddToCartRequest mirrors POST /api/carts. Price is the line total.
type AddToCartRequest struct {
	ProductID ID    `json:"product_id" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
	Price     int64 `json:"price"`
}

type User struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Gender  string `json:"gender,omitempty"`
	Address string `json:"address,omitempty"`
	Image   string `json:"image,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// ProfileForm is the admin profile update payload.
type ProfileForm struct {
	Name    string `form:"name" validate:"required"`
	Email   string `form:"email" validate:"required,email"`
	Phone   string `form:"phone"`
	Gender  string `form:"gender"`
	Address string `form:"address"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"required"`
}

// Pagination is the block the API attaches to list responses. Only the total
// matching the listed resource is filled in.
type Pagination struct {
	CurrentPage   int `json:"current_page,omitempty"`
	TotalPage     int `json:"total_page"`
	TotalOrders   int `json:"total_orders,omitempty"`
	TotalUsers    int `json:"total_users,omitempty"`
	TotalProducts int `json:"total_products,omitempty"`
}

// Total returns whichever total the API filled in.
func (p Pagination) Total() int {
	switch {
	case p.TotalOrders > 0:
		return p.TotalOrders
	case p.TotalUsers > 0:
		return p.TotalUsers
	default:
		return p.TotalProducts
	}
}
