// Package cart models server-side shopping carts.
package cart

import (
	"strconv"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/services/shop/catalog"
)

// MaxQuantity caps the quantity of a single cart line.
const MaxQuantity = 99

// Item is a stored cart line.
type Item struct {
	ProductID string
	Quantity  int64
	AddedAt   time.Time
}

// Line is an item joined with the current product data.
type Line struct {
	Product        catalog.Product
	Quantity       int64
	LineTotalCents int64
	// Available is false when the product was deactivated or has too
	// little stock for Quantity.
	Available bool
}

// Cart is a priced view of a user's items.
type Cart struct {
	UserID        string
	Lines         []Line
	Currency      string
	SubtotalCents int64
}

// Empty reports whether the cart has no lines.
func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}

// ValidateQuantity checks a requested quantity is within 1..MaxQuantity.
func ValidateQuantity(quantity int64) error {
	if quantity < 1 || quantity > MaxQuantity {
		return apperrors.WithMetadata(apperrors.CodeCartInvalidQuantity, "quantity out of range", map[string]string{
			"Max": strconv.Itoa(MaxQuantity),
		})
	}
	return nil
}

// InsufficientStock builds the stock error for product.
func InsufficientStock(product catalog.Product) error {
	return apperrors.WithMetadata(apperrors.CodeCartInsufficientStock, "insufficient stock", map[string]string{
		"Available": strconv.FormatInt(product.Stock, 10),
		"ProductID": product.ID,
	})
}

// Merge returns the quantity after adding add units to an existing line.
// The result is capped at MaxQuantity and must fit in the product's stock.
func Merge(existing, add int64, product catalog.Product) (int64, error) {
	if err := ValidateQuantity(add); err != nil {
		return 0, err
	}
	total := existing + add
	if total > MaxQuantity {
		total = MaxQuantity
	}
	if !product.InStock(total) {
		return 0, InsufficientStock(product)
	}
	return total, nil
}

// SetQuantity validates an absolute quantity for a line. Zero means remove.
func SetQuantity(quantity int64, product catalog.Product) (int64, error) {
	if quantity == 0 {
		return 0, nil
	}
	if err := ValidateQuantity(quantity); err != nil {
		return 0, err
	}
	if !product.InStock(quantity) {
		return 0, InsufficientStock(product)
	}
	return quantity, nil
}

// CheckCurrency rejects a product priced in a different currency than the
// lines already in the cart.
func CheckCurrency(items []Item, products map[string]catalog.Product, candidate catalog.Product) error {
	for _, item := range items {
		if item.ProductID == candidate.ID {
			continue
		}
		existing, ok := products[item.ProductID]
		if !ok {
			continue
		}
		if existing.Currency != candidate.Currency {
			return apperrors.WithMetadata(apperrors.CodeCartCurrencyMismatch, "cart currency mismatch", map[string]string{
				"Currency": existing.Currency,
			})
		}
	}
	return nil
}

// Build prices items against products. Items whose product is missing are
// dropped; inactive or understocked products stay visible but unavailable and
// do not count toward the subtotal.
func Build(userID string, items []Item, products map[string]catalog.Product) Cart {
	c := Cart{UserID: userID, Lines: make([]Line, 0, len(items))}
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		line := Line{
			Product:        product,
			Quantity:       item.Quantity,
			LineTotalCents: product.PriceCents * item.Quantity,
			Available:      product.Active && product.InStock(item.Quantity),
		}
		if c.Currency == "" {
			c.Currency = product.Currency
		}
		if line.Available {
			c.SubtotalCents += line.LineTotalCents
		}
		c.Lines = append(c.Lines, line)
	}
	return c
}
