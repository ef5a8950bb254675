package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"bazaar/internal/catalog/models"
	"bazaar/pkg/domain"
	"bazaar/pkg/platform/sentinel"
)

// Postgres persists catalog items. DeleteIfPresent relies on row-level
// locking in DELETE so at most one concurrent caller gets the row back.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema documents the expected table; migrations live with the deployment.
//
//	CREATE TABLE items (
//	    id UUID PRIMARY KEY,
//	    name TEXT NOT NULL,
//	    description TEXT NOT NULL DEFAULT '',
//	    price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
//	    category TEXT NOT NULL,
//	    vendor_id UUID NOT NULL,
//	    vendor_name TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL
//	);

const itemColumns = "id, name, description, price, category, vendor_id, vendor_name, created_at"

func (s *Postgres) Create(ctx context.Context, item *models.Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID.String(), item.Name, item.Description, item.Price, string(item.Category),
		item.VendorID.String(), item.VendorName, item.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ItemID) (*models.Item, error) {
	return scanItem(s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM items WHERE id = $1`, id.String()))
}

func (s *Postgres) List(ctx context.Context, filter models.ListFilter) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var clauses []string
	var args []any
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if len(filter.Categories) > 0 {
		categories := make([]string, len(filter.Categories))
		for i, c := range filter.Categories {
			categories[i] = string(c)
		}
		args = append(args, pq.Array(categories))
		clauses = append(clauses, fmt.Sprintf("category = ANY($%d)", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// DeleteIfPresent removes the item and returns it. The RETURNING clause makes
// the delete and the read a single statement, so exactly one of any set of
// concurrent callers gets the row; the rest see ErrNotFound.
func (s *Postgres) DeleteIfPresent(ctx context.Context, id domain.ItemID) (*models.Item, error) {
	return scanItem(s.db.QueryRowContext(ctx, `
		DELETE FROM items WHERE id = $1 RETURNING `+itemColumns, id.String()))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var item models.Item
	var rawID, rawVendorID, rawCategory string
	err := row.Scan(&rawID, &item.Name, &item.Description, &item.Price, &rawCategory,
		&rawVendorID, &item.VendorName, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan item: %w", err)
	}

	id, err := domain.ParseItemID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan item id: %w", err)
	}
	vendorID, err := domain.ParseMemberID(rawVendorID)
	if err != nil {
		return nil, fmt.Errorf("scan vendor id: %w", err)
	}
	item.ID = id
	item.VendorID = vendorID
	item.Category = models.Category(rawCategory)
	return &item, nil
}
