package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/database"
	apperrors "github.com/allisson/orders/internal/errors"
	ordersDomain "github.com/allisson/orders/internal/orders/domain"
	"github.com/allisson/orders/internal/pagination"
)

// MySQLOrderRepository implements Order persistence for MySQL databases.
type MySQLOrderRepository struct {
	db *sql.DB
}

// NewMySQLOrderRepository creates a new MySQLOrderRepository
func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{
		db: db,
	}
}

// Create inserts a new order. MySQL has no RETURNING, so the row is read back
// to populate the database-assigned timestamps.
func (m *MySQLOrderRepository) Create(ctx context.Context, order *ordersDomain.Order) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO orders (id, tenant_id, status, version, total_cents, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, NOW(6), NOW(6))`

	_, err := querier.ExecContext(ctx, query,
		order.ID, order.TenantID, order.Status, order.Version, order.TotalCents)
	if err != nil {
		return apperrors.Wrap(err, "failed to create order")
	}

	created, err := m.GetByID(ctx, order.TenantID, order.ID)
	if err != nil {
		return err
	}
	order.CreatedAt = created.CreatedAt
	order.UpdatedAt = created.UpdatedAt

	return nil
}

// GetByID retrieves an order by id within a tenant.
func (m *MySQLOrderRepository) GetByID(
	ctx context.Context,
	tenantID string,
	id uuid.UUID,
) (*ordersDomain.Order, error) {
	return m.getByID(ctx, tenantID, id, false)
}

// GetByIDForUpdate retrieves an order by id within a tenant and locks the row
// until the enclosing transaction commits. Must be called inside a transaction.
func (m *MySQLOrderRepository) GetByIDForUpdate(
	ctx context.Context,
	tenantID string,
	id uuid.UUID,
) (*ordersDomain.Order, error) {
	return m.getByID(ctx, tenantID, id, true)
}

func (m *MySQLOrderRepository) getByID(
	ctx context.Context,
	tenantID string,
	id uuid.UUID,
	forUpdate bool,
) (*ordersDomain.Order, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, tenant_id, status, version, total_cents, created_at, updated_at
			  FROM orders
			  WHERE id = ? AND tenant_id = ?`
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
// conditional update. Returns false when no row matched; the caller re-reads
// to classify the failure.
func (m *MySQLOrderRepository) ConfirmVersioned(
	ctx context.Context,
	tenantID string,
	id uuid.UUID,
	expectedVersion int64,
	totalCents int64,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE orders
			  SET status = ?, version = version + 1, total_cents = ?, updated_at = NOW(6)
			  WHERE id = ? AND tenant_id = ? AND version = ? AND status = ?`

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
func (m *MySQLOrderRepository) Update(ctx context.Context, order *ordersDomain.Order) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE orders
			  SET status = ?, version = ?, total_cents = ?, updated_at = NOW(6)
			  WHERE id = ? AND tenant_id = ?`

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
func (m *MySQLOrderRepository) List(
	ctx context.Context,
	tenantID string,
	limit int,
	cursor *pagination.Cursor,
) ([]*ordersDomain.Order, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, tenant_id, status, version, total_cents, created_at, updated_at
			  FROM orders
			  WHERE tenant_id = ?`
	args := []any{tenantID}

	if cursor != nil {
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
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
