package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/louisbranch/storefront/internal/services/shop/order"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
)

// CountUsers counts users created at or after since.
func (s *Store) CountUsers(ctx context.Context, since *time.Time) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var count int64
	err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE ?1 IS NULL OR created_at >= ?1", sinceParam(since)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// CountProducts counts active and total products.
func (s *Store) CountProducts(ctx context.Context) (storage.ProductCounts, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ProductCounts{}, err
	}
	var counts storage.ProductCounts
	err := s.sqlDB.QueryRowContext(ctx, "SELECT COALESCE(SUM(active), 0), COUNT(*) FROM products").Scan(&counts.Active, &counts.Total)
	if err != nil {
		return storage.ProductCounts{}, fmt.Errorf("count products: %w", err)
	}
	return counts, nil
}

// CountOrdersByStatus counts orders per status. Every status is present.
func (s *Store) CountOrdersByStatus(ctx context.Context, since *time.Time) (map[order.Status]int64, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT status, COUNT(*) FROM orders
WHERE ?1 IS NULL OR created_at >= ?1
GROUP BY status`, sinceParam(since))
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	defer rows.Close()

	counts := make(map[order.Status]int64, len(order.Statuses))
	for _, status := range order.Statuses {
		counts[status] = 0
	}
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan order count: %w", err)
		}
		counts[order.Status(status)] = count
	}
	return counts, rows.Err()
}

// RevenueByCurrency sums order subtotals for revenue statuses per currency.
func (s *Store) RevenueByCurrency(ctx context.Context, since *time.Time) (map[string]int64, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	args := []any{sinceParam(since)}
	in := ""
	for _, status := range order.Statuses {
		if !status.Revenue() {
			continue
		}
		if in != "" {
			in += ", "
		}
		args = append(args, string(status))
		in += "?" + strconv.Itoa(len(args))
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT currency, SUM(subtotal_cents) FROM orders
WHERE (?1 IS NULL OR created_at >= ?1) AND status IN (`+in+`)
GROUP BY currency`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	defer rows.Close()

	revenue := make(map[string]int64)
	for rows.Next() {
		var (
			code  string
			total int64
		)
		if err := rows.Scan(&code, &total); err != nil {
			return nil, fmt.Errorf("scan revenue: %w", err)
		}
		revenue[code] = total
	}
	return revenue, rows.Err()
}
