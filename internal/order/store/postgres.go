package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	catalogmodels "bazaar/internal/catalog/models"
	"bazaar/internal/order/models"
	"bazaar/pkg/domain"
	"bazaar/pkg/platform/sentinel"
)

// Postgres persists orders. Execute wraps SELECT ... FOR UPDATE in a
// transaction so the validation and the write happen against a locked row.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema documents the expected table; migrations live with the deployment.
//
//	CREATE TABLE orders (
//	    id UUID PRIMARY KEY,
//	    item_name TEXT NOT NULL,
//	    price NUMERIC(12,2) NOT NULL,
//	    category TEXT NOT NULL,
//	    seller_id UUID NOT NULL,
//	    seller_name TEXT NOT NULL,
//	    buyer_id UUID NOT NULL,
//	    buyer_name TEXT NOT NULL,
//	    status TEXT NOT NULL CHECK (status IN ('pending', 'completed')),
//	    otp TEXT NOT NULL,
//	    otp_hash TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    completed_at TIMESTAMPTZ
//	);
//	CREATE INDEX orders_buyer_status ON orders (buyer_id, status);
//	CREATE INDEX orders_seller_status ON orders (seller_id, status);

const orderColumns = "id, item_name, price, category, seller_id, seller_name, buyer_id, buyer_name, status, otp, otp_hash, created_at, completed_at"

func (s *Postgres) Create(ctx context.Context, order *models.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		order.ID.String(), order.ItemName, order.Price, string(order.Category),
		order.SellerID.String(), order.SellerName, order.BuyerID.String(), order.BuyerName,
		string(order.Status), order.OTP, order.OTPHash, order.CreatedAt, order.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.OrderID) (*models.Order, error) {
	return scanOrder(s.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1`, id.String()))
}

// Execute loads the order under FOR UPDATE, runs fn, and writes the mutation
// back before committing. fn errors roll the transaction back untouched.
func (s *Postgres) Execute(ctx context.Context, id domain.OrderID, fn func(order *models.Order) error) (*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("execute order: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	order, err := scanOrder(tx.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id.String()))
	if err != nil {
		return nil, err
	}

	if err := fn(order); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, completed_at = $3 WHERE id = $1`,
		order.ID.String(), string(order.Status), order.CompletedAt,
	); err != nil {
		return nil, fmt.Errorf("execute order: update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("execute order: commit: %w", err)
	}
	return order, nil
}

func (s *Postgres) ListByBuyer(ctx context.Context, buyerID domain.MemberID, status models.Status) ([]*models.Order, error) {
	return s.list(ctx, "buyer_id", buyerID, status)
}

func (s *Postgres) ListBySeller(ctx context.Context, sellerID domain.MemberID, status models.Status) ([]*models.Order, error) {
	return s.list(ctx, "seller_id", sellerID, status)
}

func (s *Postgres) list(ctx context.Context, partyColumn string, partyID domain.MemberID, status models.Status) ([]*models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE `+partyColumn+` = $1 AND status = $2
		ORDER BY created_at DESC, id`,
		partyID.String(), string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var rawID, rawSellerID, rawBuyerID, rawCategory, rawStatus string
	var completedAt sql.NullTime
	err := row.Scan(&rawID, &order.ItemName, &order.Price, &rawCategory,
		&rawSellerID, &order.SellerName, &rawBuyerID, &order.BuyerName,
		&rawStatus, &order.OTP, &order.OTPHash, &order.CreatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}

	id, err := domain.ParseOrderID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan order id: %w", err)
	}
	sellerID, err := domain.ParseMemberID(rawSellerID)
	if err != nil {
		return nil, fmt.Errorf("scan seller id: %w", err)
	}
	buyerID, err := domain.ParseMemberID(rawBuyerID)
	if err != nil {
		return nil, fmt.Errorf("scan buyer id: %w", err)
	}
	status, err := models.ParseStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("scan order status: %w", err)
	}

	order.ID = id
	order.SellerID = sellerID
	order.BuyerID = buyerID
	order.Category = catalogmodels.Category(rawCategory)
	order.Status = status
	if completedAt.Valid {
		order.CompletedAt = &completedAt.Time
	}
	return &order, nil
}
