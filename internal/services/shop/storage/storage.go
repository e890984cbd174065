// Package storage defines persistence contracts for the storefront.
package storage

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/services/shop/account"
	"github.com/louisbranch/storefront/internal/services/shop/cart"
	"github.com/louisbranch/storefront/internal/services/shop/catalog"
	"github.com/louisbranch/storefront/internal/services/shop/order"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrDuplicate indicates a unique constraint rejected a write.
var ErrDuplicate = errors.New("duplicate record")

// UserStore persists users and their credentials.
type UserStore interface {
	// CreateUser inserts a user, its password hash (may be empty) and an
	// initial profile atomically. Returns ErrDuplicate when the email exists.
	CreateUser(ctx context.Context, u account.User, passwordHash string, profile account.Profile) error
	GetUser(ctx context.Context, userID string) (account.User, error)
	GetUserByEmail(ctx context.Context, email string) (account.User, error)
	GetPasswordHash(ctx context.Context, userID string) (string, error)
	SetPasswordHash(ctx context.Context, userID string, hash string, now time.Time) error
	UpdateUserRole(ctx context.Context, userID string, role account.Role, now time.Time) error
	ListUsers(ctx context.Context, query UserQuery) ([]account.User, error)
}

// UserQuery selects a page of users, newest first.
type UserQuery struct {
	Role   account.Role
	Email  string
	Limit  int
	Offset int
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (account.Profile, error)
	PutProfile(ctx context.Context, profile account.Profile) error
	// SetAvatarKey stores key and returns the previous key.
	SetAvatarKey(ctx context.Context, userID string, key string, now time.Time) (string, error)
}

// PasskeyCredential stores a WebAuthn credential for a user.
type PasskeyCredential struct {
	CredentialID   string
	UserID         string
	CredentialJSON string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastUsedAt     *time.Time
}

// PasskeySession stores a WebAuthn registration or login ceremony.
type PasskeySession struct {
	ID          string
	Kind        string
	UserID      string
	SessionJSON string
	ExpiresAt   time.Time
}

// PasskeyStore persists WebAuthn credential and session data.
type PasskeyStore interface {
	PutPasskeyCredential(ctx context.Context, credential PasskeyCredential) error
	GetPasskeyCredential(ctx context.Context, credentialID string) (PasskeyCredential, error)
	ListPasskeyCredentials(ctx context.Context, userID string) ([]PasskeyCredential, error)
	PutPasskeySession(ctx context.Context, session PasskeySession) error
	GetPasskeySession(ctx context.Context, id string) (PasskeySession, error)
	DeletePasskeySession(ctx context.Context, id string) error
	DeleteExpiredPasskeySessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionStore tracks revoked session tokens until they expire.
type SessionStore interface {
	RevokeSession(ctx context.Context, tokenID string, userID string, expiresAt time.Time) error
	IsSessionRevoked(ctx context.Context, tokenID string) (bool, error)
	DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
}

// ProductStore persists catalog products.
type ProductStore interface {
	// CreateProduct returns ErrDuplicate when the slug exists.
	CreateProduct(ctx context.Context, p catalog.Product) error
	// UpdateProduct returns ErrDuplicate when the new slug exists.
	UpdateProduct(ctx context.Context, p catalog.Product) error
	GetProduct(ctx context.Context, productID string) (catalog.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (catalog.Product, error)
	// ListProducts returns up to PageSize+1 rows so callers can detect a
	// following page.
	ListProducts(ctx context.Context, query catalog.ListQuery) ([]catalog.Product, error)
	GetProducts(ctx context.Context, productIDs []string) (map[string]catalog.Product, error)
	// DeleteProduct hard-deletes unreferenced products and deactivates
	// products referenced by orders. soft reports which happened.
	DeleteProduct(ctx context.Context, productID string, now time.Time) (soft bool, err error)
	// SetProductImage stores key and returns the previous key.
	SetProductImage(ctx context.Context, productID string, key string, now time.Time) (string, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
}

// CartStore persists cart items keyed by user.
type CartStore interface {
	ListCartItems(ctx context.Context, userID string) ([]cart.Item, error)
	PutCartItem(ctx context.Context, userID string, item cart.Item) error
	DeleteCartItem(ctx context.Context, userID string, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

// CheckoutInput describes a checkout attempt.
type CheckoutInput struct {
	UserID      string
	Address     account.Address
	Now         func() time.Time
	IDGenerator func() (string, error)
}

// OrderQuery selects a page of orders, newest first.
type OrderQuery struct {
	UserID string
	Status order.Status
	Limit  int
	Offset int
}

// OrderStore persists orders.
type OrderStore interface {
	// Checkout converts the user's cart into a pending order in one
	// transaction: stock is verified and decremented, lines are snapshotted
	// and the cart is cleared.
	Checkout(ctx context.Context, input CheckoutInput) (order.Order, error)
	GetOrder(ctx context.Context, orderID string) (order.Order, error)
	ListOrders(ctx context.Context, query OrderQuery) ([]order.Order, error)
	// TransitionOrder moves an order to status, restocking on cancel. When
	// userID is non-empty the order must belong to that user and be pending.
	TransitionOrder(ctx context.Context, orderID string, userID string, to order.Status, now time.Time) (order.Order, error)
	CountOrdersByUser(ctx context.Context, userID string) (int64, error)
}

// ProductCounts holds catalog size figures.
type ProductCounts struct {
	Active int64
	Total  int64
}

// StatisticsStore provides aggregate figures for the admin dashboard.
// When since is nil, counts are for all time.
type StatisticsStore interface {
	CountUsers(ctx context.Context, since *time.Time) (int64, error)
	CountProducts(ctx context.Context) (ProductCounts, error)
	CountOrdersByStatus(ctx context.Context, since *time.Time) (map[order.Status]int64, error)
	RevenueByCurrency(ctx context.Context, since *time.Time) (map[string]int64, error)
}

// Store is the full persistence surface.
type Store interface {
	UserStore
	ProfileStore
	PasskeyStore
	SessionStore
	ProductStore
	CartStore
	OrderStore
	StatisticsStore
	Close() error
}
