package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hitpay-gateway/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateOrder creates a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (total, currency, status, billing_first_name, billing_last_name, billing_email, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		order.Total, order.Currency, order.Status,
		order.BillingFirstName, order.BillingLastName, order.BillingEmail, order.SessionID,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", models.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus updates order status and records a note
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status, note string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updateStatus(ctx, tx, orderID, status); err != nil {
		return err
	}
	if err := addNote(ctx, tx, orderID, note); err != nil {
		return err
	}
	return tx.Commit()
}

// GetMeta returns the meta value for key, or "" when absent
func (s *Store) GetMeta(ctx context.Context, orderID int64, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		"SELECT meta_value FROM order_meta WHERE order_id = $1 AND meta_key = $2", orderID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// GetAllMeta returns every meta pair of an order
func (s *Store) GetAllMeta(ctx context.Context, orderID int64) ([]models.OrderMeta, error) {
	var meta []models.OrderMeta
	err := s.db.SelectContext(ctx, &meta,
		"SELECT * FROM order_meta WHERE order_id = $1 ORDER BY meta_key", orderID)
	return meta, err
}

// SetMeta inserts or overwrites a meta value
func (s *Store) SetMeta(ctx context.Context, orderID int64, key, value string) error {
	return upsertMeta(ctx, s.db, orderID, key, value)
}

// GetNotes returns the notes of an order, oldest first
func (s *Store) GetNotes(ctx context.Context, orderID int64) ([]models.OrderNote, error) {
	var notes []models.OrderNote
	err := s.db.SelectContext(ctx, &notes,
		"SELECT * FROM order_notes WHERE order_id = $1 ORDER BY id", orderID)
	return notes, err
}

// ApplyReconciliation writes a webhook outcome at most once per order. The
// guard meta row is inserted first and only if absent; losing that insert
// means another delivery already reconciled the order.
func (s *Store) ApplyReconciliation(ctx context.Context, rec models.Reconciliation) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO order_meta (order_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id, meta_key) DO NOTHING`,
		rec.OrderID, models.MetaWebhookStatus, rec.WebhookStatus)
	if err != nil {
		return fmt.Errorf("failed to write reconciliation guard: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if inserted == 0 {
		return models.ErrAlreadyReconciled
	}

	if err := updateStatus(ctx, tx, rec.OrderID, rec.OrderStatus); err != nil {
		return err
	}

	for key, value := range rec.Meta() {
		if err := upsertMeta(ctx, tx, rec.OrderID, key, value); err != nil {
			return err
		}
	}

	if err := addNote(ctx, tx, rec.OrderID, rec.Note); err != nil {
		return err
	}

	return tx.Commit()
}

// RecordWebhookDelivery keeps an audit row for every webhook received
func (s *Store) RecordWebhookDelivery(ctx context.Context, orderID int64, status, paymentID, outcome string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO webhook_deliveries (order_id, status, payment_id, outcome) VALUES ($1, $2, $3, $4)",
		orderID, status, paymentID, outcome)
	return err
}

// CountWebhookDeliveries returns how many deliveries were seen for an order
func (s *Store) CountWebhookDeliveries(ctx context.Context, orderID int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM webhook_deliveries WHERE order_id = $1", orderID)
	return n, err
}

func updateStatus(ctx context.Context, db sqlx.ExecerContext, orderID int64, status string) error {
	res, err := db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", models.ErrOrderNotFound, orderID)
	}
	return nil
}

func upsertMeta(ctx context.Context, db sqlx.ExecerContext, orderID int64, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO order_meta (order_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value, updated_at = NOW()`,
		orderID, key, value)
	if err != nil {
		return fmt.Errorf("failed to set meta %s: %w", key, err)
	}
	return nil
}

func addNote(ctx context.Context, db sqlx.ExecerContext, orderID int64, note string) error {
	if note == "" {
		return nil
	}
	_, err := db.ExecContext(ctx,
		"INSERT INTO order_notes (order_id, note) VALUES ($1, $2)", orderID, note)
	return err
}
