package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/orders/internal/errors"
	"github.com/allisson/orders/internal/events"
	"github.com/allisson/orders/internal/idempotency"
	ordersDomain "github.com/allisson/orders/internal/orders/domain"
	outboxDomain "github.com/allisson/orders/internal/outbox/domain"
	"github.com/allisson/orders/internal/pagination"
)

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	// Execute the function to test the logic inside
	return fn(ctx)
}

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *ordersDomain.Order) error {
	args := m.Called(ctx, order)
	if args.Error(0) == nil {
		order.CreatedAt = time.Now()
		order.UpdatedAt = order.CreatedAt
	}
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(
	ctx context.Context,
	tenantID string,
	id uuid.UUID,
) (*ordersDomain.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordersDomain.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByIDForUpdate(
	ctx context.Context,
	tenantID string,
	id uuid.UUID,
) (*ordersDomain.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordersDomain.Order), args.Error(1)
}

func (m *MockOrderRepository) ConfirmVersioned(
	ctx context.Context,
	tenantID string,
	id uuid.UUID,
	expectedVersion, totalCents int64,
) (bool, error) {
	args := m.Called(ctx, tenantID, id, expectedVersion, totalCents)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *ordersDomain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) List(
	ctx context.Context,
	tenantID string,
	limit int,
	cursor *pagination.Cursor,
) ([]*ordersDomain.Order, error) {
	args := m.Called(ctx, tenantID, limit, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ordersDomain.Order), args.Error(1)
}

// MockOutboxRepository is a mock implementation of OutboxRepository
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, entry *outboxDomain.OutboxEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of idempotency.Store
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Get(ctx context.Context, tenantID, key string) (*idempotency.Record, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idempotency.Record), args.Error(1)
}

func (m *MockIdempotencyStore) PutIfAbsent(
	ctx context.Context,
	tenantID, key string,
	record idempotency.Record,
) (bool, error) {
	args := m.Called(ctx, tenantID, key, record)
	return args.Bool(0), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, envelope events.Envelope) error {
	args := m.Called(ctx, envelope)
	return args.Error(0)
}

type useCaseMocks struct {
	txManager  *MockTxManager
	orderRepo  *MockOrderRepository
	outboxRepo *MockOutboxRepository
	idemStore  *MockIdempotencyStore
	publisher  *MockPublisher
}

func newUseCase() (OrderUseCase, *useCaseMocks) {
	m := &useCaseMocks{
		txManager:  new(MockTxManager),
		orderRepo:  new(MockOrderRepository),
		outboxRepo: new(MockOutboxRepository),
		idemStore:  new(MockIdempotencyStore),
		publisher:  new(MockPublisher),
	}
	uc := NewOrderUseCase(
		Config{ListDefaultLimit: 20, ListMaxLimit: 100},
		m.txManager, m.orderRepo, m.outboxRepo, m.idemStore, m.publisher, nil,
	)
	return uc, m
}

func TestOrderUseCase_CreateDraft(t *testing.T) {
	body := []byte(`{}`)
	fingerprint, err := idempotency.Fingerprint(body)
	require.NoError(t, err)

	input := CreateDraftInput{
		TenantID:       "tenant-a",
		IdempotencyKey: "k1",
		Body:           body,
	}

	t.Run("fresh key creates a draft", func(t *testing.T) {
		uc, m := newUseCase()

		m.idemStore.On("Get", mock.Anything, "tenant-a", "k1").Return(nil, nil)
		m.orderRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.idemStore.On("PutIfAbsent", mock.Anything, "tenant-a", "k1", mock.Anything).Return(true, nil)
		m.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		output, err := uc.CreateDraft(context.Background(), input)

		require.NoError(t, err)
		assert.False(t, output.Replayed)
		require.NotNil(t, output.Order)
		assert.Equal(t, ordersDomain.StatusDraft, output.Order.Status)
		assert.Equal(t, int64(1), output.Order.Version)
		assert.Nil(t, output.Order.TotalCents)

		var response createDraftResponse
		require.NoError(t, json.Unmarshal(output.Response, &response))
		assert.Equal(t, output.Order.ID, response.ID)

		stored := m.idemStore.Calls[1].Arguments.Get(3).(idempotency.Record)
		assert.Equal(t, fingerprint, stored.Fingerprint)
	})

	t.Run("same key and body replays the cached response", func(t *testing.T) {
		uc, m := newUseCase()

		cached := &idempotency.Record{
			Fingerprint: fingerprint,
			Response:    json.RawMessage(`{"id":"cached"}`),
		}
		m.idemStore.On("Get", mock.Anything, "tenant-a", "k1").Return(cached, nil)

		output, err := uc.CreateDraft(context.Background(), input)

		require.NoError(t, err)
		assert.True(t, output.Replayed)
		assert.Equal(t, cached.Response, output.Response)
		m.orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("same key with different body is rejected", func(t *testing.T) {
		uc, m := newUseCase()

		cached := &idempotency.Record{
			Fingerprint: "some-other-fingerprint",
			Response:    json.RawMessage(`{"id":"cached"}`),
		}
		m.idemStore.On("Get", mock.Anything, "tenant-a", "k1").Return(cached, nil)

		_, err := uc.CreateDraft(context.Background(), input)

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		m.orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid json body is rejected", func(t *testing.T) {
		uc, _ := newUseCase()

		_, err := uc.CreateDraft(context.Background(), CreateDraftInput{
			TenantID:       "tenant-a",
			IdempotencyKey: "k1",
			Body:           []byte("not json"),
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("lost cache race replays the winner's response", func(t *testing.T) {
		uc, m := newUseCase()

		winner := &idempotency.Record{
			Fingerprint: fingerprint,
			Response:    json.RawMessage(`{"id":"winner"}`),
		}
		m.idemStore.On("Get", mock.Anything, "tenant-a", "k1").Return(nil, nil).Once()
		m.orderRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.idemStore.On("PutIfAbsent", mock.Anything, "tenant-a", "k1", mock.Anything).Return(false, nil)
		m.idemStore.On("Get", mock.Anything, "tenant-a", "k1").Return(winner, nil).Once()

		output, err := uc.CreateDraft(context.Background(), input)

		require.NoError(t, err)
		assert.True(t, output.Replayed)
		assert.Equal(t, winner.Response, output.Response)
	})
}

func TestOrderUseCase_Confirm(t *testing.T) {
	orderID := uuid.Must(uuid.NewV7())
	input := ConfirmInput{
		TenantID:        "tenant-a",
		ID:              orderID,
		ExpectedVersion: 1,
		TotalCents:      500,
	}

	t.Run("confirms a draft with matching version", func(t *testing.T) {
		uc, m := newUseCase()

		total := int64(500)
		confirmed := &ordersDomain.Order{
			ID:         orderID,
			TenantID:   "tenant-a",
			Status:     ordersDomain.StatusConfirmed,
			Version:    2,
			TotalCents: &total,
		}

		m.txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		m.orderRepo.On("ConfirmVersioned", mock.Anything, "tenant-a", orderID, int64(1), int64(500)).
			Return(true, nil)
		m.orderRepo.On("GetByID", mock.Anything, "tenant-a", orderID).Return(confirmed, nil)
		m.outboxRepo.On("Create", mock.Anything, mock.MatchedBy(func(entry *outboxDomain.OutboxEntry) bool {
			return entry.EventType == ordersDomain.EventOrderConfirmed &&
				entry.OrderID == orderID &&
				entry.TenantID == "tenant-a" &&
				entry.PublishedAt == nil
		})).Return(nil)
		m.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		order, err := uc.Confirm(context.Background(), input)

		require.NoError(t, err)
		assert.Equal(t, ordersDomain.StatusConfirmed, order.Status)
		assert.Equal(t, int64(2), order.Version)
		m.outboxRepo.AssertExpectations(t)
	})

	t.Run("missing order fails with not found", func(t *testing.T) {
		uc, m := newUseCase()

		m.txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		m.orderRepo.On("ConfirmVersioned", mock.Anything, "tenant-a", orderID, int64(1), int64(500)).
			Return(false, nil)
		m.orderRepo.On("GetByID", mock.Anything, "tenant-a", orderID).Return(nil, apperrors.ErrNotFound)

		_, err := uc.Confirm(context.Background(), input)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("stale version fails with version conflict", func(t *testing.T) {
		uc, m := newUseCase()

		total := int64(500)
		current := &ordersDomain.Order{
			ID:         orderID,
			TenantID:   "tenant-a",
			Status:     ordersDomain.StatusConfirmed,
			Version:    2,
			TotalCents: &total,
		}

		m.txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		m.orderRepo.On("ConfirmVersioned", mock.Anything, "tenant-a", orderID, int64(1), int64(500)).
			Return(false, nil)
		m.orderRepo.On("GetByID", mock.Anything, "tenant-a", orderID).Return(current, nil)

		_, err := uc.Confirm(context.Background(), input)

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrStale)

		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ORDER_VERSION_CONFLICT", domainErr.Code)
		assert.Equal(t, int64(2), domainErr.Details["currentVersion"])
	})

	t.Run("matching version but wrong status fails with status invalid", func(t *testing.T) {
		uc, m := newUseCase()

		current := &ordersDomain.Order{
			ID:       orderID,
			TenantID: "tenant-a",
			Status:   ordersDomain.StatusClosed,
			Version:  1,
		}

		m.txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		m.orderRepo.On("ConfirmVersioned", mock.Anything, "tenant-a", orderID, int64(1), int64(500)).
			Return(false, nil)
		m.orderRepo.On("GetByID", mock.Anything, "tenant-a", orderID).Return(current, nil)

		_, err := uc.Confirm(context.Background(), input)

		require.Error(t, err)

		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ORDER_STATUS_INVALID", domainErr.Code)
	})

	t.Run("negative total is rejected", func(t *testing.T) {
		uc, m := newUseCase()

		_, err := uc.Confirm(context.Background(), ConfirmInput{
			TenantID:        "tenant-a",
			ID:              orderID,
			ExpectedVersion: 1,
			TotalCents:      -1,
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		m.txManager.AssertNotCalled(t, "WithTx", mock.Anything, mock.Anything)
	})
}

func TestOrderUseCase_Close(t *testing.T) {
	orderID := uuid.Must(uuid.NewV7())
	input := CloseInput{TenantID: "tenant-a", ID: orderID}

	t.Run("closes a confirmed order", func(t *testing.T) {
		uc, m := newUseCase()

		total := int64(500)
		confirmed := &ordersDomain.Order{
			ID:         orderID,
			TenantID:   "tenant-a",
			Status:     ordersDomain.StatusConfirmed,
			Version:    2,
			TotalCents: &total,
		}

		m.txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		m.orderRepo.On("GetByIDForUpdate", mock.Anything, "tenant-a", orderID).Return(confirmed, nil)
		m.orderRepo.On("Update", mock.Anything, mock.MatchedBy(func(order *ordersDomain.Order) bool {
			return order.Status == ordersDomain.StatusClosed && order.Version == 3
		})).Return(nil)
		m.outboxRepo.On("Create", mock.Anything, mock.MatchedBy(func(entry *outboxDomain.OutboxEntry) bool {
			if entry.EventType != ordersDomain.EventOrderClosed {
				return false
			}
			var payload map[string]any
			if err := json.Unmarshal(entry.Payload, &payload); err != nil {
				return false
			}
			return payload["totalCents"] == float64(500)
		})).Return(nil)
		m.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		order, err := uc.Close(context.Background(), input)

		require.NoError(t, err)
		assert.Equal(t, ordersDomain.StatusClosed, order.Status)
		assert.Equal(t, int64(3), order.Version)
		m.outboxRepo.AssertExpectations(t)
	})

	t.Run("missing order fails with not found", func(t *testing.T) {
		uc, m := newUseCase()

		m.txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		m.orderRepo.On("GetByIDForUpdate", mock.Anything, "tenant-a", orderID).
			Return(nil, apperrors.ErrNotFound)

		_, err := uc.Close(context.Background(), input)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("draft order fails with status invalid and no outbox append", func(t *testing.T) {
		uc, m := newUseCase()

		draft := &ordersDomain.Order{
			ID:       orderID,
			TenantID: "tenant-a",
			Status:   ordersDomain.StatusDraft,
			Version:  1,
		}

		m.txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		m.orderRepo.On("GetByIDForUpdate", mock.Anything, "tenant-a", orderID).Return(draft, nil)

		_, err := uc.Close(context.Background(), input)

		require.Error(t, err)

		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ORDER_STATUS_INVALID", domainErr.Code)
		m.outboxRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.orderRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestOrderUseCase_List(t *testing.T) {
	makeOrders := func(n int) []*ordersDomain.Order {
		orders := make([]*ordersDomain.Order, n)
		base := time.Now()
		for i := range orders {
			orders[i] = &ordersDomain.Order{
				ID:        uuid.Must(uuid.NewV7()),
				TenantID:  "tenant-a",
				Status:    ordersDomain.StatusDraft,
				Version:   1,
				CreatedAt: base.Add(-time.Duration(i) * time.Minute),
			}
		}
		return orders
	}

	t.Run("full page carries a next cursor", func(t *testing.T) {
		uc, m := newUseCase()

		orders := makeOrders(21)
		m.orderRepo.On("List", mock.Anything, "tenant-a", 21, (*pagination.Cursor)(nil)).
			Return(orders, nil)

		output, err := uc.List(context.Background(), ListInput{TenantID: "tenant-a", Limit: 20})

		require.NoError(t, err)
		assert.Len(t, output.Items, 20)
		require.NotEmpty(t, output.NextCursor)

		cursor, err := pagination.Decode(output.NextCursor)
		require.NoError(t, err)
		assert.Equal(t, orders[19].ID, cursor.ID)
	})

	t.Run("short page has no next cursor", func(t *testing.T) {
		uc, m := newUseCase()

		orders := makeOrders(5)
		m.orderRepo.On("List", mock.Anything, "tenant-a", 21, (*pagination.Cursor)(nil)).
			Return(orders, nil)

		output, err := uc.List(context.Background(), ListInput{TenantID: "tenant-a", Limit: 20})

		require.NoError(t, err)
		assert.Len(t, output.Items, 5)
		assert.Empty(t, output.NextCursor)
	})

	t.Run("zero limit falls back to the default", func(t *testing.T) {
		uc, m := newUseCase()

		m.orderRepo.On("List", mock.Anything, "tenant-a", 21, (*pagination.Cursor)(nil)).
			Return([]*ordersDomain.Order{}, nil)

		_, err := uc.List(context.Background(), ListInput{TenantID: "tenant-a"})

		require.NoError(t, err)
		m.orderRepo.AssertExpectations(t)
	})

	t.Run("limit above the maximum is capped", func(t *testing.T) {
		uc, m := newUseCase()

		m.orderRepo.On("List", mock.Anything, "tenant-a", 101, (*pagination.Cursor)(nil)).
			Return([]*ordersDomain.Order{}, nil)

		_, err := uc.List(context.Background(), ListInput{TenantID: "tenant-a", Limit: 500})

		require.NoError(t, err)
		m.orderRepo.AssertExpectations(t)
	})

	t.Run("cursor resumes after the encoded row", func(t *testing.T) {
		uc, m := newUseCase()

		cursor := pagination.Cursor{CreatedAt: time.Now().UTC(), ID: uuid.Must(uuid.NewV7())}
		token := pagination.Encode(cursor)

		m.orderRepo.On("List", mock.Anything, "tenant-a", 21, mock.MatchedBy(func(c *pagination.Cursor) bool {
			return c != nil && c.ID == cursor.ID && c.CreatedAt.Equal(cursor.CreatedAt)
		})).Return([]*ordersDomain.Order{}, nil)

		_, err := uc.List(context.Background(), ListInput{TenantID: "tenant-a", Limit: 20, Cursor: token})

		require.NoError(t, err)
		m.orderRepo.AssertExpectations(t)
	})

	t.Run("malformed cursor is a client error", func(t *testing.T) {
		uc, m := newUseCase()

		_, err := uc.List(context.Background(), ListInput{
			TenantID: "tenant-a",
			Limit:    20,
			Cursor:   "%%%not-a-cursor",
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		m.orderRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
