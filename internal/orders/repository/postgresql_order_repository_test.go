package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/orders/internal/errors"
	ordersDomain "github.com/allisson/orders/internal/orders/domain"
	"github.com/allisson/orders/internal/pagination"
)

func orderColumns() []string {
	return []string{"id", "tenant_id", "status", "version", "total_cents", "created_at", "updated_at"}
}

func TestPostgreSQLOrderRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewPostgreSQLOrderRepository(db)
	order := ordersDomain.NewDraftOrder("tenant-a")

	now := time.Now()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(order.ID, order.TenantID, order.Status, order.Version, order.TotalCents).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	err = repo.Create(context.Background(), order)

	require.NoError(t, err)
	assert.Equal(t, now, order.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOrderRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewPostgreSQLOrderRepository(db)
	id := uuid.Must(uuid.NewV7())
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(orderColumns()).
			AddRow(id, "tenant-a", "draft", 1, nil, now, now)

		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(id, "tenant-a").
			WillReturnRows(rows)

		order, err := repo.GetByID(context.Background(), "tenant-a", id)

		require.NoError(t, err)
		assert.Equal(t, id, order.ID)
		assert.Equal(t, ordersDomain.StatusDraft, order.Status)
		assert.Equal(t, int64(1), order.Version)
		assert.Nil(t, order.TotalCents)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(id, "tenant-b").
			WillReturnRows(sqlmock.NewRows(orderColumns()))

		_, err := repo.GetByID(context.Background(), "tenant-b", id)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOrderRepository_ConfirmVersioned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewPostgreSQLOrderRepository(db)
	id := uuid.Must(uuid.NewV7())

	t.Run("applied", func(t *testing.T) {
		mock.ExpectExec("UPDATE orders").
			WithArgs(ordersDomain.StatusConfirmed, int64(500), id, "tenant-a", int64(1), ordersDomain.StatusDraft).
			WillReturnResult(sqlmock.NewResult(0, 1))

		applied, err := repo.ConfirmVersioned(context.Background(), "tenant-a", id, 1, 500)

		require.NoError(t, err)
		assert.True(t, applied)
	})

	t.Run("no row matched", func(t *testing.T) {
		mock.ExpectExec("UPDATE orders").
			WithArgs(ordersDomain.StatusConfirmed, int64(500), id, "tenant-a", int64(2), ordersDomain.StatusDraft).
			WillReturnResult(sqlmock.NewResult(0, 0))

		applied, err := repo.ConfirmVersioned(context.Background(), "tenant-a", id, 2, 500)

		require.NoError(t, err)
		assert.False(t, applied)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOrderRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewPostgreSQLOrderRepository(db)
	total := int64(500)
	order := &ordersDomain.Order{
		ID:         uuid.Must(uuid.NewV7()),
		TenantID:   "tenant-a",
		Status:     ordersDomain.StatusClosed,
		Version:    3,
		TotalCents: &total,
	}

	mock.ExpectExec("UPDATE orders").
		WithArgs(order.Status, order.Version, order.TotalCents, order.ID, order.TenantID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Update(context.Background(), order)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOrderRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	repo := NewPostgreSQLOrderRepository(db)
	now := time.Now()

	t.Run("first page", func(t *testing.T) {
		rows := sqlmock.NewRows(orderColumns()).
			AddRow(uuid.Must(uuid.NewV7()), "tenant-a", "confirmed", 2, int64(500), now, now).
			AddRow(uuid.Must(uuid.NewV7()), "tenant-a", "draft", 1, nil, now.Add(-time.Minute), now)

		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs("tenant-a", 21).
			WillReturnRows(rows)

		orders, err := repo.List(context.Background(), "tenant-a", 21, nil)

		require.NoError(t, err)
		assert.Len(t, orders, 2)
	})

	t.Run("with cursor", func(t *testing.T) {
		cursor := &pagination.Cursor{CreatedAt: now, ID: uuid.Must(uuid.NewV7())}

		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs("tenant-a", cursor.CreatedAt, cursor.ID, 21).
			WillReturnRows(sqlmock.NewRows(orderColumns()))

		orders, err := repo.List(context.Background(), "tenant-a", 21, cursor)

		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
