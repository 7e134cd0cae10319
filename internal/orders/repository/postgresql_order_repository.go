// Package repository implements data persistence for orders.
// Repositories support both PostgreSQL and MySQL. All reads and writes are
// tenant-scoped: an order id from another tenant behaves as if it does not
// exist.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/database"
	apperrors "github.com/allisson/orders/internal/errors"
	ordersDomain "github.com/allisson/orders/internal/orders/domain"
	"github.com/allisson/orders/internal/pagination"
)

// PostgreSQLOrderRepository implements Order persistence for PostgreSQL databases.
type PostgreSQLOrderRepository struct {
	db *sql.DB
}

// NewPostgreSQLOrderRepository creates a new PostgreSQLOrderRepository
func NewPostgreSQLOrderRepository(db *sql.DB) *PostgreSQLOrderRepository {
	return &PostgreSQLOrderRepository{
		db: db,
	}
}

// Create inserts a new order.
func (p *PostgreSQLOrderRepository) Create(ctx context.Context, order *ordersDomain.Order) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO orders (id, tenant_id, status, version, total_cents, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			  RETURNING created_at, updated_at`

	err := querier.QueryRowContext(
		ctx,
		query,
		order.ID,
		order.TenantID,
		order.Status,
		order.Version,
		order.TotalCents,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create order")
	}
	return nil
}

// GetByID retrieves an order by id within a tenant.
func (p *PostgreSQLOrderRepository) GetByID(
	ctx context.Context,
	tenantID string,
	id uuid.UUID,
) (*ordersDomain.Order, error) {
	return p.getByID(ctx, tenantID, id, false)
}

// GetByIDForUpdate retrieves an order by id within a tenant and locks the row
// until the enclosing transaction commits. Must be called inside a transaction.
func (p *PostgreSQLOrderRepository) GetByIDForUpdate(
	ctx context.Context,
	tenantID string,
	id uuid.UUID,
) (*ordersDomain.Order, error) {
	return p.getByID(ctx, tenantID, id, true)
}

func (p *PostgreSQLOrderRepository) getByID(
	ctx context.Context,
	tenantID string,
	id uuid.UUID,
	forUpdate bool,
) (*ordersDomain.Order, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, tenant_id, status, version, total_cents, created_at, updated_at
			  FROM orders
			  WHERE id = $1 AND tenant_id = $2`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var order ordersDomain.Order
	err := querier.QueryRowContext(ctx, query, id, tenantID).Scan(
		&order.ID,
		&order.TenantID,
		&order.Status,
		&order.Version,
		&order.TotalCents,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order by id")
	}

	return &order, nil
}

// ConfirmVersioned transitions a draft order to confirmed with a single
// conditional update. The predicate pins both the expected version and the
// draft status, so a concurrent confirm or close between a read and this
// write cannot be lost. Returns false when no row matched; the caller
// re-reads to classify the failure.
func (p *PostgreSQLOrderRepository) ConfirmVersioned(
	ctx context.Context,
	tenantID string,
	id uuid.UUID,
	expectedVersion int64,
	totalCents int64,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE orders
			  SET status = $1, version = version + 1, total_cents = $2, updated_at = NOW()
			  WHERE id = $3 AND tenant_id = $4 AND version = $5 AND status = $6`

	result, err := querier.ExecContext(ctx, query,
		ordersDomain.StatusConfirmed, totalCents, id, tenantID, expectedVersion, ordersDomain.StatusDraft)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to confirm order")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to confirm order")
	}

	return affected == 1, nil
}

// Update persists the order's status, version and total. Used by the close
// flow after the row has been locked with GetByIDForUpdate.
func (p *PostgreSQLOrderRepository) Update(ctx context.Context, order *ordersDomain.Order) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE orders
			  SET status = $1, version = $2, total_cents = $3, updated_at = NOW()
			  WHERE id = $4 AND tenant_id = $5`

	result, err := querier.ExecContext(ctx, query,
		order.Status, order.Version, order.TotalCents, order.ID, order.TenantID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update order")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update order")
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// List retrieves up to limit orders for a tenant ordered by (created_at, id)
// descending, resuming strictly after the cursor position when one is given.
// Callers pass limit+1 to probe for a next page.
func (p *PostgreSQLOrderRepository) List(
	ctx context.Context,
	tenantID string,
	limit int,
	cursor *pagination.Cursor,
) ([]*ordersDomain.Order, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, tenant_id, status, version, total_cents, created_at, updated_at
			  FROM orders
			  WHERE tenant_id = $1`
	args := []any{tenantID}

	if cursor != nil {
		query += ` AND (created_at, id) < ($2, $3)`
		args = append(args, cursor.CreatedAt, cursor.ID)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list orders")
	}
	defer rows.Close() //nolint:errcheck

	var orders []*ordersDomain.Order
	for rows.Next() {
		var order ordersDomain.Order

		err := rows.Scan(
			&order.ID,
			&order.TenantID,
			&order.Status,
			&order.Version,
			&order.TotalCents,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan order")
		}

		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list orders")
	}

	return orders, nil
}
