package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/services/shop/catalog"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
)

const productColumns = "id, slug, name, description, price_cents, currency, stock, category, image_key, active, created_at, updated_at"

// productOrder maps accepted order_by values to SQL with a stable tiebreak.
var productOrder = map[string]string{
	"created_at desc":  "created_at DESC, id DESC",
	"price_cents":      "price_cents ASC, id ASC",
	"price_cents desc": "price_cents DESC, id DESC",
	"name":             "name COLLATE NOCASE ASC, id ASC",
}

func scanProduct(row rowScanner) (catalog.Product, error) {
	var (
		p         catalog.Product
		active    int64
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.PriceCents, &p.Currency, &p.Stock, &p.Category, &p.ImageKey, &active, &createdAt, &updatedAt); err != nil {
		return catalog.Product{}, err
	}
	p.Active = active != 0
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

func boolInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}

// CreateProduct inserts a product.
func (s *Store) CreateProduct(ctx context.Context, p catalog.Product) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("product id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO products ("+productColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.Slug, p.Name, p.Description, p.PriceCents, p.Currency, p.Stock, p.Category, p.ImageKey,
		boolInt(p.Active), toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// UpdateProduct replaces the editable fields of a product.
func (s *Store) UpdateProduct(ctx context.Context, p catalog.Product) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE products SET slug = ?, name = ?, description = ?, price_cents = ?, currency = ?,
    stock = ?, category = ?, active = ?, updated_at = ?
WHERE id = ?`,
		p.Slug, p.Name, p.Description, p.PriceCents, p.Currency, p.Stock, p.Category,
		boolInt(p.Active), toMillis(p.UpdatedAt), p.ID,
	)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return requireRow(result)
}

// GetProduct fetches a product by id, active or not.
func (s *Store) GetProduct(ctx context.Context, productID string) (catalog.Product, error) {
	if err := s.ready(ctx); err != nil {
		return catalog.Product{}, err
	}
	p, err := scanProduct(s.sqlDB.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", productID))
	if err != nil {
		return catalog.Product{}, notFound(err)
	}
	return p, nil
}

// GetProductBySlug fetches a product by slug, active or not.
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (catalog.Product, error) {
	if err := s.ready(ctx); err != nil {
		return catalog.Product{}, err
	}
	p, err := scanProduct(s.sqlDB.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE slug = ?", slug))
	if err != nil {
		return catalog.Product{}, notFound(err)
	}
	return p, nil
}

// ListProducts returns up to PageSize+1 products matching query.
func (s *Store) ListProducts(ctx context.Context, query catalog.ListQuery) ([]catalog.Product, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	orderBy, ok := productOrder[query.OrderBy]
	if !ok {
		orderBy = productOrder[catalog.DefaultOrderBy]
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = catalog.DefaultPageSize
	}

	var (
		where []string
		args  []any
	)
	if !query.IncludeInactive {
		where = append(where, "active = 1")
	}
	if !query.Where.Empty() {
		where = append(where, "("+query.Where.Clause+")")
		args = append(args, query.Where.Params...)
	}
	stmt := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY " + orderBy + " LIMIT ? OFFSET ?"
	args = append(args, pageSize+1, query.Offset)

	rows, err := s.sqlDB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProducts fetches products by id. Missing ids are absent from the map.
func (s *Store) GetProducts(ctx context.Context, productIDs []string) (map[string]catalog.Product, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return getProducts(ctx, s.sqlDB, productIDs)
}

func getProducts(ctx context.Context, q queryer, productIDs []string) (map[string]catalog.Product, error) {
	products := make(map[string]catalog.Product, len(productIDs))
	if len(productIDs) == 0 {
		return products, nil
	}
	args := make([]any, 0, len(productIDs))
	for _, productID := range productIDs {
		args = append(args, productID)
	}
	rows, err := q.QueryContext(ctx, "SELECT "+productColumns+" FROM products WHERE id IN ("+placeholders(len(args))+")", args...)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

// DeleteProduct removes a product, or deactivates it when orders reference it.
func (s *Store) DeleteProduct(ctx context.Context, productID string, now time.Time) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	soft := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var referenced int64
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM order_lines WHERE product_id = ?", productID).Scan(&referenced); err != nil {
			return fmt.Errorf("count order lines: %w", err)
		}
		if referenced > 0 {
			soft = true
			result, err := tx.ExecContext(ctx, "UPDATE products SET active = 0, updated_at = ? WHERE id = ?", toMillis(now), productID)
			if err != nil {
				return fmt.Errorf("deactivate product: %w", err)
			}
			if err := requireRow(result); err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, "DELETE FROM cart_items WHERE product_id = ?", productID)
			return err
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = ?", productID)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		return requireRow(result)
	})
	return soft, err
}

// SetProductImage stores a new image key and returns the previous one.
func (s *Store) SetProductImage(ctx context.Context, productID string, key string, now time.Time) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	var previous string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, "SELECT image_key FROM products WHERE id = ?", productID).Scan(&previous); err != nil {
			return notFound(err)
		}
		_, err := tx.ExecContext(ctx, "UPDATE products SET image_key = ?, updated_at = ? WHERE id = ?", key, toMillis(now), productID)
		if err != nil {
			return fmt.Errorf("set product image: %w", err)
		}
		return nil
	})
	return previous, err
}

// ListCategories counts active products per non-empty category.
func (s *Store) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT category, COUNT(*) FROM products
WHERE active = 1 AND category != ''
GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []catalog.Category
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
