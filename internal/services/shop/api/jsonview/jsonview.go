// Package jsonview renders domain values as the JSON shapes served by the
// shop and admin APIs. Prices carry a display string for the request locale.
package jsonview

import (
	"net/http"
	"time"

	"github.com/louisbranch/storefront/internal/platform/i18n"
	"github.com/louisbranch/storefront/internal/services/shop/account"
	"github.com/louisbranch/storefront/internal/services/shop/cart"
	"github.com/louisbranch/storefront/internal/services/shop/catalog"
	"github.com/louisbranch/storefront/internal/services/shop/order"
	"golang.org/x/text/language"
)

// Formatter holds the request-scoped settings used to render views.
type Formatter struct {
	Tag language.Tag
	// MediaURL maps an object key to a client address.
	MediaURL func(key string) string
}

// NewFormatter resolves the request locale.
func NewFormatter(r *http.Request, mediaURL func(string) string) Formatter {
	tag, _ := i18n.ResolveTag(r)
	return Formatter{Tag: tag, MediaURL: mediaURL}
}

// Price renders cents in code for the formatter locale.
func (f Formatter) Price(cents int64, code string) string {
	if code == "" {
		return ""
	}
	return i18n.FormatPrice(f.Tag, cents, code)
}

func (f Formatter) mediaURL(key string) string {
	if key == "" || f.MediaURL == nil {
		return ""
	}
	return f.MediaURL(key)
}

// User is the public shape of an account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Locale    string    `json:"locale"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUser renders u.
func NewUser(u account.User) User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		Locale:    u.Locale,
		CreatedAt: u.CreatedAt,
	}
}

// Profile is the editable account profile.
type Profile struct {
	DisplayName string          `json:"display_name"`
	Phone       string          `json:"phone"`
	Address     account.Address `json:"address"`
	AvatarURL   string          `json:"avatar_url,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Profile renders p.
func (f Formatter) Profile(p account.Profile) Profile {
	return Profile{
		DisplayName: p.DisplayName,
		Phone:       p.Phone,
		Address:     p.Address,
		AvatarURL:   f.mediaURL(p.AvatarKey),
		UpdatedAt:   p.UpdatedAt,
	}
}

// Product is a catalog entry.
type Product struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceCents   int64     `json:"price_cents"`
	Currency     string    `json:"currency"`
	PriceDisplay string    `json:"price_display"`
	Stock        int64     `json:"stock"`
	Category     string    `json:"category,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Product renders p.
func (f Formatter) Product(p catalog.Product) Product {
	return Product{
		ID:           p.ID,
		Slug:         p.Slug,
		Name:         p.Name,
		Description:  p.Description,
		PriceCents:   p.PriceCents,
		Currency:     p.Currency,
		PriceDisplay: f.Price(p.PriceCents, p.Currency),
		Stock:        p.Stock,
		Category:     p.Category,
		ImageURL:     f.mediaURL(p.ImageKey),
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// Products renders a product slice, never nil.
func (f Formatter) Products(products []catalog.Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, f.Product(p))
	}
	return out
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products      []Product `json:"products"`
	NextPageToken string    `json:"next_page_token,omitempty"`
}

// Category summarizes one category.
type Category struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// NewCategories renders categories, never nil.
func NewCategories(categories []catalog.Category) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, Category{Name: c.Name, Count: c.Count})
	}
	return out
}

// CartLine is a priced cart line.
type CartLine struct {
	ProductID        string `json:"product_id"`
	Slug             string `json:"slug"`
	Name             string `json:"name"`
	ImageURL         string `json:"image_url,omitempty"`
	UnitPriceCents   int64  `json:"unit_price_cents"`
	UnitPriceDisplay string `json:"unit_price_display"`
	Quantity         int64  `json:"quantity"`
	Stock            int64  `json:"stock"`
	LineTotalCents   int64  `json:"line_total_cents"`
	LineTotalDisplay string `json:"line_total_display"`
	Available        bool   `json:"available"`
}

// Cart is the priced view of a user's cart.
type Cart struct {
	Lines           []CartLine `json:"lines"`
	Currency        string     `json:"currency,omitempty"`
	SubtotalCents   int64      `json:"subtotal_cents"`
	SubtotalDisplay string     `json:"subtotal_display,omitempty"`
	ItemCount       int64      `json:"item_count"`
}

// Cart renders c.
func (f Formatter) Cart(c cart.Cart) Cart {
	out := Cart{
		Lines:           make([]CartLine, 0, len(c.Lines)),
		Currency:        c.Currency,
		SubtotalCents:   c.SubtotalCents,
		SubtotalDisplay: f.Price(c.SubtotalCents, c.Currency),
	}
	for _, line := range c.Lines {
		out.ItemCount += line.Quantity
		out.Lines = append(out.Lines, CartLine{
			ProductID:        line.Product.ID,
			Slug:             line.Product.Slug,
			Name:             line.Product.Name,
			ImageURL:         f.mediaURL(line.Product.ImageKey),
			UnitPriceCents:   line.Product.PriceCents,
			UnitPriceDisplay: f.Price(line.Product.PriceCents, line.Product.Currency),
			Quantity:         line.Quantity,
			Stock:            line.Product.Stock,
			LineTotalCents:   line.LineTotalCents,
			LineTotalDisplay: f.Price(line.LineTotalCents, line.Product.Currency),
			Available:        line.Available,
		})
	}
	return out
}

// OrderLine is a product snapshot on an order.
type OrderLine struct {
	ProductID        string `json:"product_id"`
	Slug             string `json:"slug"`
	Name             string `json:"name"`
	UnitPriceCents   int64  `json:"unit_price_cents"`
	Quantity         int64  `json:"quantity"`
	LineTotalCents   int64  `json:"line_total_cents"`
	LineTotalDisplay string `json:"line_total_display"`
}

// Order is a placed order.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Status          string          `json:"status"`
	Lines           []OrderLine     `json:"lines"`
	Currency        string          `json:"currency"`
	SubtotalCents   int64           `json:"subtotal_cents"`
	SubtotalDisplay string          `json:"subtotal_display"`
	ShippingAddress account.Address `json:"shipping_address"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Order renders o.
func (f Formatter) Order(o order.Order) Order {
	out := Order{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		Lines:           make([]OrderLine, 0, len(o.Lines)),
		Currency:        o.Currency,
		SubtotalCents:   o.SubtotalCents,
		SubtotalDisplay: f.Price(o.SubtotalCents, o.Currency),
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, line := range o.Lines {
		out.Lines = append(out.Lines, OrderLine{
			ProductID:        line.ProductID,
			Slug:             line.Slug,
			Name:             line.Name,
			UnitPriceCents:   line.UnitPriceCents,
			Quantity:         line.Quantity,
			LineTotalCents:   line.LineTotalCents,
			LineTotalDisplay: f.Price(line.LineTotalCents, o.Currency),
		})
	}
	return out
}

// Orders renders orders, never nil.
func (f Formatter) Orders(orders []order.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, f.Order(o))
	}
	return out
}

// OrderPage is one page of orders.
type OrderPage struct {
	Orders        []Order `json:"orders"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}
