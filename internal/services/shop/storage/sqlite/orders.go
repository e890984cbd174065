package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/services/shop/cart"
	"github.com/louisbranch/storefront/internal/services/shop/order"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
)

const orderColumns = `id, user_id, status, currency, subtotal_cents, ship_line1, ship_line2, ship_city,
    ship_region, ship_postal_code, ship_country, created_at, updated_at`

func scanOrder(row rowScanner) (order.Order, error) {
	var (
		o         order.Order
		status    string
		createdAt int64
		updatedAt int64
	)
	a := &o.ShippingAddress
	if err := row.Scan(&o.ID, &o.UserID, &status, &o.Currency, &o.SubtotalCents,
		&a.Line1, &a.Line2, &a.City, &a.Region, &a.PostalCode, &a.Country,
		&createdAt, &updatedAt); err != nil {
		return order.Order{}, err
	}
	o.Status = order.Status(status)
	o.CreatedAt = fromMillis(createdAt)
	o.UpdatedAt = fromMillis(updatedAt)
	return o, nil
}

// Checkout converts a user's cart into a pending order.
func (s *Store) Checkout(ctx context.Context, input storage.CheckoutInput) (order.Order, error) {
	if err := s.ready(ctx); err != nil {
		return order.Order{}, err
	}
	if strings.TrimSpace(input.UserID) == "" {
		return order.Order{}, fmt.Errorf("user id is required")
	}
	if !input.Address.Complete() {
		return order.Order{}, order.ErrAddressRequired
	}

	var placed order.Order
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		items, err := listCartItems(ctx, tx, input.UserID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return order.ErrEmptyCart
		}
		productIDs := make([]string, 0, len(items))
		for _, item := range items {
			productIDs = append(productIDs, item.ProductID)
		}
		products, err := getProducts(ctx, tx, productIDs)
		if err != nil {
			return err
		}

		priced := cart.Build(input.UserID, items, products)
		o, err := order.NewFromCart(priced, input.Address, input.Now, input.IDGenerator)
		if err != nil {
			return err
		}

		for _, line := range o.Lines {
			result, err := tx.ExecContext(ctx,
				"UPDATE products SET stock = stock - ? WHERE id = ? AND active = 1 AND stock >= ?",
				line.Quantity, line.ProductID, line.Quantity,
			)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if err := requireRow(result); err != nil {
				return order.ProductUnavailable(line.Name)
			}
		}

		a := o.ShippingAddress
		_, err = tx.ExecContext(ctx, "INSERT INTO orders ("+orderColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			o.ID, o.UserID, string(o.Status), o.Currency, o.SubtotalCents,
			a.Line1, a.Line2, a.City, a.Region, a.PostalCode, a.Country,
			toMillis(o.CreatedAt), toMillis(o.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for i, line := range o.Lines {
			_, err := tx.ExecContext(ctx, `
INSERT INTO order_lines (order_id, position, product_id, slug, name, unit_price_cents, quantity, line_total_cents)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				o.ID, i, line.ProductID, line.Slug, line.Name, line.UnitPriceCents, line.Quantity, line.LineTotalCents,
			)
			if err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ?", input.UserID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		placed = o
		return nil
	})
	if err != nil {
		return order.Order{}, err
	}
	return placed, nil
}

// GetOrder fetches an order with its lines.
func (s *Store) GetOrder(ctx context.Context, orderID string) (order.Order, error) {
	if err := s.ready(ctx); err != nil {
		return order.Order{}, err
	}
	return getOrder(ctx, s.sqlDB, orderID)
}

func getOrder(ctx context.Context, q queryer, orderID string) (order.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", orderID))
	if err != nil {
		return order.Order{}, notFound(err)
	}
	lines, err := orderLines(ctx, q, []string{o.ID})
	if err != nil {
		return order.Order{}, err
	}
	o.Lines = lines[o.ID]
	return o, nil
}

func orderLines(ctx context.Context, q queryer, orderIDs []string) (map[string][]order.Line, error) {
	lines := make(map[string][]order.Line, len(orderIDs))
	if len(orderIDs) == 0 {
		return lines, nil
	}
	args := make([]any, 0, len(orderIDs))
	for _, orderID := range orderIDs {
		args = append(args, orderID)
	}
	rows, err := q.QueryContext(ctx, `
SELECT order_id, product_id, slug, name, unit_price_cents, quantity, line_total_cents
FROM order_lines WHERE order_id IN (`+placeholders(len(args))+`) ORDER BY order_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID string
			line    order.Line
		)
		if err := rows.Scan(&orderID, &line.ProductID, &line.Slug, &line.Name, &line.UnitPriceCents, &line.Quantity, &line.LineTotalCents); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines[orderID] = append(lines[orderID], line)
	}
	return lines, rows.Err()
}

// ListOrders returns orders newest first with their lines.
func (s *Store) ListOrders(ctx context.Context, query storage.OrderQuery) ([]order.Order, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var (
		where []string
		args  []any
	)
	if query.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, query.UserID)
	}
	if query.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(query.Status))
	}
	stmt := "SELECT " + orderColumns + " FROM orders"
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, query.Limit, query.Offset)

	rows, err := s.sqlDB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var (
		orders []order.Order
		ids    []string
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	lines, err := orderLines(ctx, s.sqlDB, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return orders, nil
}

// TransitionOrder moves an order to a new status, restocking its lines when
// the new status returns stock. A non-empty userID limits the move to a
// customer cancelling their own pending order.
func (s *Store) TransitionOrder(ctx context.Context, orderID string, userID string, to order.Status, now time.Time) (order.Order, error) {
	if err := s.ready(ctx); err != nil {
		return order.Order{}, err
	}
	var updated order.Order
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		transition := current.Transition
		if userID != "" {
			if current.UserID != userID {
				return storage.ErrNotFound
			}
			transition = current.CustomerTransition
		}
		next, err := transition(to, now)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "UPDATE orders SET status = ?, updated_at = ? WHERE id = ?", string(next.Status), toMillis(next.UpdatedAt), next.ID)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if order.Restocks(to) {
			for _, line := range next.Lines {
				if _, err := tx.ExecContext(ctx, "UPDATE products SET stock = stock + ? WHERE id = ?", line.Quantity, line.ProductID); err != nil {
					return fmt.Errorf("restock product: %w", err)
				}
			}
		}
		updated = next
		return nil
	})
	if err != nil {
		return order.Order{}, err
	}
	return updated, nil
}

// CountOrdersByUser counts every order a user placed.
func (s *Store) CountOrdersByUser(ctx context.Context, userID string) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var count int64
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE user_id = ?", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}
