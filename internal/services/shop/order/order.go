// Package order models placed orders and their fulfilment lifecycle.
package order

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/id"
	"github.com/louisbranch/storefront/internal/services/shop/account"
	"github.com/louisbranch/storefront/internal/services/shop/cart"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled}

var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered},
}

// ParseStatus validates a status name.
func ParseStatus(value string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range Statuses {
		if status == candidate {
			return status, nil
		}
	}
	return "", apperrors.New(apperrors.CodeOrderInvalidStatus, "unknown order status")
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Restocks reports whether moving into to returns stock to the catalog.
func Restocks(to Status) bool {
	return to == StatusCancelled
}

// Revenue reports whether orders in status count as revenue.
func (s Status) Revenue() bool {
	return s == StatusPaid || s == StatusShipped || s == StatusDelivered
}

// Line is a product snapshot taken at checkout.
type Line struct {
	ProductID      string
	Slug           string
	Name           string
	UnitPriceCents int64
	Quantity       int64
	LineTotalCents int64
}

// Order is a placed order.
type Order struct {
	ID              string
	UserID          string
	Status          Status
	Lines           []Line
	Currency        string
	SubtotalCents   int64
	ShippingAddress account.Address
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Transition moves o to status at now.
func (o Order) Transition(to Status, now time.Time) (Order, error) {
	if !CanTransition(o.Status, to) {
		return Order{}, invalidTransition(o.Status, to)
	}
	o.Status = to
	o.UpdatedAt = now.UTC()
	return o, nil
}

// CustomerTransition is Transition restricted to what a customer may do:
// cancel an order that is still pending.
func (o Order) CustomerTransition(to Status, now time.Time) (Order, error) {
	if to != StatusCancelled || o.Status != StatusPending {
		return Order{}, invalidTransition(o.Status, to)
	}
	return o.Transition(to, now)
}

func invalidTransition(from, to Status) error {
	return apperrors.WithMetadata(apperrors.CodeOrderInvalidTransition, "invalid order transition", map[string]string{
		"From": string(from),
		"To":   string(to),
	})
}

// ErrAddressRequired is returned when checkout has no complete address.
var ErrAddressRequired = apperrors.New(apperrors.CodeOrderAddressRequired, "shipping address is required")

// ErrEmptyCart is returned when checking out an empty cart.
var ErrEmptyCart = apperrors.New(apperrors.CodeCartEmpty, "cart is empty")

// ProductUnavailable builds the error for a line that can no longer be filled.
func ProductUnavailable(name string) error {
	return apperrors.WithMetadata(apperrors.CodeOrderProductUnavailable, "product unavailable", map[string]string{"Name": name})
}

// ResolveAddress picks the request address when given, else the profile's.
func ResolveAddress(requested *account.Address, profile account.Address) (account.Address, error) {
	address := profile
	if requested != nil {
		normalized, err := account.NormalizeAddress(*requested)
		if err != nil {
			return account.Address{}, err
		}
		address = normalized
	}
	if !address.Complete() {
		return account.Address{}, ErrAddressRequired
	}
	return address, nil
}

// NewFromCart snapshots a priced cart into a pending order. Every line must
// be available; the caller re-reads products inside the checkout transaction.
func NewFromCart(c cart.Cart, address account.Address, now func() time.Time, idGenerator func() (string, error)) (Order, error) {
	if c.Empty() {
		return Order{}, ErrEmptyCart
	}
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	o := Order{
		UserID:          c.UserID,
		Status:          StatusPending,
		Currency:        c.Currency,
		ShippingAddress: address,
		Lines:           make([]Line, 0, len(c.Lines)),
	}
	for _, line := range c.Lines {
		if !line.Available {
			return Order{}, ProductUnavailable(line.Product.Name)
		}
		if line.Product.Currency != o.Currency {
			return Order{}, apperrors.WithMetadata(apperrors.CodeCartCurrencyMismatch, "cart currency mismatch", map[string]string{"Currency": o.Currency})
		}
		total := line.Product.PriceCents * line.Quantity
		o.Lines = append(o.Lines, Line{
			ProductID:      line.Product.ID,
			Slug:           line.Product.Slug,
			Name:           line.Product.Name,
			UnitPriceCents: line.Product.PriceCents,
			Quantity:       line.Quantity,
			LineTotalCents: total,
		})
		o.SubtotalCents += total
	}

	orderID, err := idGenerator()
	if err != nil {
		return Order{}, fmt.Errorf("generate order id: %w", err)
	}
	o.ID = orderID
	o.CreatedAt = now().UTC()
	o.UpdatedAt = o.CreatedAt
	return o, nil
}
