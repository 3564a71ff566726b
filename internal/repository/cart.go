package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/domain"
)

// AddOrIncrement creates the entry with quantity 1 or adds one to it.
// An entry already at domain.MaxQuantity is left alone and ErrQuantityLimit returned.
func (q *queries) AddOrIncrement(ctx context.Context, userID, productID int64) (*domain.CartEntry, error) {
	query := `INSERT INTO cart_entries (user_id, product_id, quantity, added_at)
	          VALUES ($1, $2, 1, $3)
	          ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_entries.quantity + 1
	          WHERE cart_entries.quantity < $4
	          RETURNING id, user_id, product_id, quantity, added_at`

	var e domain.CartEntry
	err := q.db.QueryRowContext(ctx, query, userID, productID, time.Now().UTC(), domain.MaxQuantity).Scan(
		&e.ID,
		&e.UserID,
		&e.ProductID,
		&e.Quantity,
		&e.AddedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuantityLimit
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("upsert cart entry: %w", err)
	}
	return &e, nil
}

// SetQuantity overwrites the quantity of an entry owned by userID.
// A quantity of zero or less deletes the entry.
func (q *queries) SetQuantity(ctx context.Context, userID, entryID int64, quantity int) error {
	if quantity <= 0 {
		res, err := q.db.ExecContext(ctx,
			`DELETE FROM cart_entries WHERE id = $1 AND user_id = $2`, entryID, userID)
		if err != nil {
			return fmt.Errorf("delete cart entry: %w", err)
		}
		return expectAffected(res, ErrCartEntryNotFound)
	}

	res, err := q.db.ExecContext(ctx,
		`UPDATE cart_entries SET quantity = $1 WHERE id = $2 AND user_id = $3`, quantity, entryID, userID)
	if err != nil {
		return fmt.Errorf("update cart entry quantity: %w", err)
	}
	return expectAffected(res, ErrCartEntryNotFound)
}

func (q *queries) RemoveProduct(ctx context.Context, userID, productID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM cart_entries WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove cart entry: %w", err)
	}
	return nil
}

func (q *queries) ListLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	query := `
		SELECT ce.id, ce.product_id, p.title, p.price, p.discount, ce.quantity,
		       CASE WHEN p.deleted_at IS NULL THEN 1 ELSE 0 END AS available,
		       ce.added_at
		FROM cart_entries ce
		JOIN products p ON p.id = ce.product_id
		WHERE ce.user_id = $1
		ORDER BY ce.id
	`

	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(
			&l.EntryID,
			&l.ProductID,
			&l.Title,
			&l.Price,
			&l.Discount,
			&l.Quantity,
			&l.Available,
			&l.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}

func (q *queries) Clear(ctx context.Context, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM cart_entries WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
