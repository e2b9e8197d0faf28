package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *Repository {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	require.NoError(t, repo.RunMigrations(creds))

	t.Cleanup(func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	return repo
}

func sampleRecord(reference string) *OrderRecord {
	return &OrderRecord{
		ID:        uuid.New(),
		Reference: reference,
		OrderID:   "ord_9",
		SessionID: "sess-1",
		Total:     "5000",
		Order:     json.RawMessage(`{"pricing":{"total":"5000"}}`),
	}
}

func TestRecordVerifiedOrder_Success(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	err := repo.RecordVerifiedOrder(ctx, sampleRecord("pay_123"))
	require.NoError(t, err)

	rec, err := repo.GetOrderByReference(ctx, "pay_123")
	require.NoError(t, err)
	assert.Equal(t, "ord_9", rec.OrderID)
	assert.Equal(t, "5000", rec.Total)
}

func TestRecordVerifiedOrder_DuplicateReference(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.RecordVerifiedOrder(ctx, sampleRecord("pay_dup")))

	err := repo.RecordVerifiedOrder(ctx, sampleRecord("pay_dup"))
	assert.ErrorIs(t, err, ErrDuplicateReference)
}

func TestRecordVerifiedOrder_WritesOutboxEvent(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.RecordVerifiedOrder(ctx, sampleRecord("pay_out")))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ord_9", events[0].AggregateID)
	assert.Equal(t, "checkout.completed", events[0].EventType)

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))

	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestGetOrderByReference_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetOrderByReference(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestContextCancellation(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond)

	_, err := repo.GetOrderByReference(ctx, "any")
	assert.Error(t, err)
}
