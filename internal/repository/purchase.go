package repository

import (
	"context"
	"fmt"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/domain"
)

func (q *queries) InsertPurchases(ctx context.Context, records []*domain.PurchaseRecord) error {
	query := `INSERT INTO purchases (checkout_id, user_id, product_id, product_title, quantity, unit_price, total_price, purchased_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	for _, rec := range records {
		err := q.db.QueryRowContext(ctx, query,
			rec.CheckoutID,
			rec.UserID,
			rec.ProductID,
			rec.ProductTitle,
			rec.Quantity,
			rec.UnitPrice,
			rec.TotalPrice,
			rec.PurchasedAt,
		).Scan(&rec.ID)
		if err != nil {
			return fmt.Errorf("insert purchase for product %d: %w", rec.ProductID, err)
		}
	}
	return nil
}

func (q *queries) ListPurchases(ctx context.Context, userID int64) ([]*domain.PurchaseRecord, error) {
	query := `SELECT id, checkout_id, user_id, product_id, product_title, quantity, unit_price, total_price, purchased_at
	          FROM purchases WHERE user_id = $1 ORDER BY purchased_at DESC, id DESC`

	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query purchases by user id: %w", err)
	}
	defer rows.Close()

	var records []*domain.PurchaseRecord
	for rows.Next() {
		var rec domain.PurchaseRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.CheckoutID,
			&rec.UserID,
			&rec.ProductID,
			&rec.ProductTitle,
			&rec.Quantity,
			&rec.UnitPrice,
			&rec.TotalPrice,
			&rec.PurchasedAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase row: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

func (q *queries) CountPurchases(ctx context.Context, userID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchases WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count purchases: %w", err)
	}
	return n, nil
}
