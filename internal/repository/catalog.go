package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/domain"
)

const productColumns = `p.id, p.title, p.description, p.category_id, c.name, p.price, p.discount, p.seller_id, p.image_url, p.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.CategoryID,
		&p.CategoryName,
		&p.Price,
		&p.Discount,
		&p.SellerID,
		&p.ImageURL,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProduct returns a listed product. Retired products are reported as not found.
func (q *queries) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1 AND p.deleted_at IS NULL
	`

	p, err := scanProduct(q.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return p, nil
}

func (q *queries) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	conditions := []string{"p.deleted_at IS NULL"}
	var args []any

	if filter.CategoryID > 0 {
		args = append(args, filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if filter.SellerID > 0 {
		args = append(args, filter.SellerID)
		conditions = append(conditions, fmt.Sprintf("p.seller_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(p.title) LIKE $%d", len(args)))
	}

	query := `
		SELECT ` + productColumns + `
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY p.id
	`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (q *queries) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		c := &domain.Category{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return categories, nil
}

func (q *queries) CreateProduct(ctx context.Context, product *domain.Product) error {
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO products (title, description, category_id, price, discount, seller_id, image_url, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	err := q.db.QueryRowContext(ctx, query,
		product.Title,
		product.Description,
		product.CategoryID,
		product.Price,
		product.Discount,
		product.SellerID,
		product.ImageURL,
		product.CreatedAt,
	).Scan(&product.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (q *queries) UpdateProduct(ctx context.Context, product *domain.Product) error {
	query := `UPDATE products
	          SET title = $1, description = $2, category_id = $3, price = $4, discount = $5, image_url = $6
	          WHERE id = $7 AND deleted_at IS NULL`

	res, err := q.db.ExecContext(ctx, query,
		product.Title,
		product.Description,
		product.CategoryID,
		product.Price,
		product.Discount,
		product.ImageURL,
		product.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	return expectAffected(res, ErrProductNotFound)
}

// RetireProduct hides a product from the catalog. The row stays so that
// purchase history and cart entries keep their foreign keys.
func (q *queries) RetireProduct(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE products SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("retire product: %w", err)
	}
	return expectAffected(res, ErrProductNotFound)
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
