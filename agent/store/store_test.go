package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	ctx := context.Background()
	db, err := Open(ctx, Config{Driver: DriverSQLite, DSN: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Seed(ctx, db, DefaultSampleData(time.Now())))
	return db
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	assert.Error(t, Config{Driver: "mysql", DSN: "x"}.Validate())
	assert.Error(t, Config{Driver: DriverSQLite, DSN: " "}.Validate())
	assert.NoError(t, Config{Driver: "Postgres", DSN: "postgres://localhost/db"}.Validate())
}

func TestRepositoryLookups(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	order, err := repo.GetOrder(ctx, "ORD001")
	require.NoError(t, err)
	assert.Equal(t, "shipped", order.Status)
	assert.Equal(t, "TRK001", order.TrackingNumber)
	assert.InDelta(t, 99.99, order.TotalAmount, 0.001)

	customer, err := repo.GetCustomer(ctx, "CUST002")
	require.NoError(t, err)
	assert.Equal(t, "Jane Johnson", customer.Name)

	product, err := repo.GetProduct(ctx, "PROD005")
	require.NoError(t, err)
	assert.Equal(t, 75, product.StockQuantity)

	acct, err := repo.GetBankAccount(ctx, "ACC001")
	require.NoError(t, err)
	assert.InDelta(t, 2500.75, acct.Balance, 0.001)

	tel, err := repo.GetTelecomAccount(ctx, "555-0103")
	require.NoError(t, err)
	assert.Equal(t, "Unlimited Plan", tel.PlanType)
}

func TestRepositoryNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	_, err := repo.GetOrder(ctx, "ORD999")
	assert.True(t, errors.Is(err, contractx.ErrNotFound), "got %v", err)

	_, err = repo.GetBankAccount(ctx, "ACC999")
	assert.True(t, errors.Is(err, contractx.ErrNotFound), "got %v", err)

	orders, err := repo.ListCustomerOrders(ctx, "CUST999")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestRepositoryOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	orders, err := repo.ListCustomerOrders(ctx, "CUST001")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD001", orders[0].OrderID)
	assert.Equal(t, "ORD002", orders[1].OrderID)

	txns, err := repo.ListRecentTransactions(ctx, "ACC001", 2)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "TXN003", txns[0].TransactionID)
	assert.Equal(t, "TXN002", txns[1].TransactionID)
}

func TestCountCustomersByDomain(t *testing.T) {
	t.Parallel()

	counts, err := NewRepository(newTestDB(t)).CountCustomersByDomain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []DomainCount{
		{Domain: "banking", Count: 2},
		{Domain: "ecommerce", Count: 2},
		{Domain: "telecom", Count: 1},
	}, counts)
}

func TestSeedIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, Seed(ctx, db, DefaultSampleData(time.Now())))

	n, err := db.NewSelect().Model((*Customer)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestEscalationAndChatLog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRepository(newTestDB(t))

	esc := &Escalation{EscalationID: "ESC_20240101_120000_abcdef", CustomerID: "CUST001", Issue: "refund", Priority: "high", Status: "open"}
	require.NoError(t, repo.CreateEscalation(ctx, esc))
	require.NoError(t, repo.MarkEscalationPublished(ctx, esc.EscalationID, "msg_1"))
	assert.True(t, errors.Is(repo.MarkEscalationPublished(ctx, "ESC_missing", "x"), contractx.ErrNotFound))
	assert.True(t, errors.Is(repo.CreateEscalation(ctx, &Escalation{}), contractx.ErrValidation))

	require.NoError(t, repo.LogChatSession(ctx, &ChatSessionLog{
		SessionID:  "s1",
		CustomerID: "CUST001",
		Domain:     "ecommerce",
		Messages:   `[{"role":"user","content":"hi"}]`,
	}))
}
