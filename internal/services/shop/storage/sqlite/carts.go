package sqlite

import (
	"context"
	"fmt"

	"github.com/louisbranch/storefront/internal/services/shop/cart"
)

// ListCartItems returns a user's cart items in the order they were added.
func (s *Store) ListCartItems(ctx context.Context, userID string) ([]cart.Item, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return listCartItems(ctx, s.sqlDB, userID)
}

func listCartItems(ctx context.Context, q queryer, userID string) ([]cart.Item, error) {
	rows, err := q.QueryContext(ctx, `
SELECT product_id, quantity, added_at FROM cart_items
WHERE user_id = ? ORDER BY added_at, product_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []cart.Item
	for rows.Next() {
		var (
			item    cart.Item
			addedAt int64
		)
		if err := rows.Scan(&item.ProductID, &item.Quantity, &addedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		item.AddedAt = fromMillis(addedAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

// PutCartItem sets the quantity of a cart line, keeping its original
// added_at when it already exists.
func (s *Store) PutCartItem(ctx context.Context, userID string, item cart.Item) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := cart.ValidateQuantity(item.Quantity); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO cart_items (user_id, product_id, quantity, added_at) VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = excluded.quantity`,
		userID, item.ProductID, item.Quantity, toMillis(item.AddedAt),
	)
	if err != nil {
		return fmt.Errorf("put cart item: %w", err)
	}
	return nil
}

// DeleteCartItem removes one line from a cart.
func (s *Store) DeleteCartItem(ctx context.Context, userID string, productID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ? AND product_id = ?", userID, productID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return requireRow(result)
}

// ClearCart removes every line from a cart.
func (s *Store) ClearCart(ctx context.Context, userID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
