package tool

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	knowledgex "github.com/tanpawarit/support-dispatch/agent/knowledge"
	storex "github.com/tanpawarit/support-dispatch/agent/store"
)

type fakePublisher struct {
	mu       sync.Mutex
	err      error
	payloads []any
}

func (f *fakePublisher) PublishJSON(ctx context.Context, payload any, dedupID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.payloads = append(f.payloads, payload)
	return "msg_" + dedupID, nil
}

type fixture struct {
	gateway   *Gateway
	repo      *storex.BunRepository
	publisher *fakePublisher
}

func newFixture(t *testing.T, now time.Time) fixture {
	t.Helper()

	ctx := context.Background()
	db, err := storex.Open(ctx, storex.Config{Driver: storex.DriverSQLite, DSN: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storex.Migrate(ctx, db))
	require.NoError(t, storex.Seed(ctx, db, storex.DefaultSampleData(now)))

	retriever, err := knowledgex.NewRetriever(knowledgex.NewMemoryStore(), nil)
	require.NoError(t, err)
	_, err = knowledgex.SeedSamples(ctx, retriever)
	require.NoError(t, err)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	repo := storex.NewRepository(db)
	pub := &fakePublisher{}
	g, err := NewDefaultGateway(Deps{
		Repo:      repo,
		Knowledge: retriever,
		Publisher: pub,
		Hours:     DefaultBusinessHours(ny),
		Now:       func() time.Time { return now },
	})
	require.NoError(t, err)
	return fixture{gateway: g, repo: repo, publisher: pub}
}

func TestNewGatewayRejectsBadDefinitions(t *testing.T) {
	t.Parallel()

	noop := func(ctx context.Context, args []string) contractx.ToolResult { return contractx.OK("x", "ok") }

	_, err := NewGateway(Definition{Name: " ", Handler: noop})
	assert.True(t, errors.Is(err, contractx.ErrValidation))

	_, err = NewGateway(Definition{Name: "a"})
	assert.True(t, errors.Is(err, contractx.ErrValidation))

	_, err = NewGateway(Definition{Name: "a", Handler: noop}, Definition{Name: "a", Handler: noop})
	assert.True(t, errors.Is(err, contractx.ErrValidation))

	_, err = NewGateway(Definition{Name: "a", Domain: "insurance", Handler: noop})
	assert.True(t, errors.Is(err, contractx.ErrInvalidDomain))
}

func TestInvokeUnknownTool(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	res := f.gateway.Invoke(context.Background(), "teleport_package", "ORD001")
	assert.True(t, res.IsError)
	assert.Equal(t, contractx.ErrorKindUnknownTool, res.Kind)
	assert.NotEmpty(t, res.Text)
}

func TestInvokeGetOrderStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	res := f.gateway.Invoke(context.Background(), ToolGetOrderStatus, "ORD001")
	require.False(t, res.IsError, res.Text)
	assert.Equal(t, "Order ORD001: Status is 'shipped', Total: $99.99, Tracking: TRK001", res.Text)

	res = f.gateway.Invoke(context.Background(), ToolGetOrderStatus, "ORD003")
	assert.Contains(t, res.Text, "Tracking: Not assigned yet")
}

func TestInvokeUnknownOrderIsContained(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	res := f.gateway.Invoke(context.Background(), ToolGetOrderStatus, "ORD999")
	assert.True(t, res.IsError)
	assert.Equal(t, contractx.ErrorKindNotFound, res.Kind)
	assert.Equal(t, "Order ORD999 not found. Please check the order ID.", res.Text)
}

func TestInvokeMissingArgument(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	res := f.gateway.Invoke(context.Background(), ToolGetAccountBalance)
	assert.True(t, res.IsError)
	assert.Equal(t, contractx.ErrorKindInvalidInput, res.Kind)
	assert.Contains(t, res.Text, "account_number")
}

func TestInvokeRecoversPanics(t *testing.T) {
	t.Parallel()

	g := MustNewGateway(Definition{
		Name: "explode",
		Handler: func(ctx context.Context, args []string) contractx.ToolResult {
			panic("boom")
		},
	})
	res := g.Invoke(context.Background(), "explode")
	assert.True(t, res.IsError)
	assert.Equal(t, contractx.ErrorKindBackendUnavailable, res.Kind)
	assert.NotEmpty(t, res.Text)
}

func TestInvokeFillsEmptyText(t *testing.T) {
	t.Parallel()

	g := MustNewGateway(
		Definition{Name: "quiet", Handler: func(ctx context.Context, args []string) contractx.ToolResult {
			return contractx.ToolResult{}
		}},
		Definition{Name: "quiet_fail", Handler: func(ctx context.Context, args []string) contractx.ToolResult {
			return contractx.ToolResult{IsError: true, Kind: contractx.ErrorKindBackendUnavailable}
		}},
	)
	assert.NotEmpty(t, g.Invoke(context.Background(), "quiet").Text)
	res := g.Invoke(context.Background(), "quiet_fail")
	assert.True(t, res.IsError)
	assert.Equal(t, "quiet_fail", res.Tool)
	assert.NotEmpty(t, res.Text)
}

func TestDomainLookups(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, time.Now())

	cases := []struct {
		tool string
		args []string
		want string
		err  bool
	}{
		{ToolGetAccountBalance, []string{"ACC001"}, "Your current account balance is: $2,500.75", false},
		{ToolGetAccountBalance, []string{"ACC999"}, "Account not found. Please verify your account number.", true},
		{ToolCheckAccountStatus, []string{"ACC002"}, "Account Type: savings, Status: active", false},
		{ToolGetTelecomAccountInfo, []string{"555-0103"}, "Phone: 555-0103, Plan: Unlimited Plan, Monthly Charge: $89.99, Status: active", false},
		{ToolGetDataUsage, []string{"555-0106"}, "Current data usage: 12.1 GB this month. Monthly charge: $39.99", false},
		{ToolCheckNetworkStatus, []string{"555-0103"}, "Active and operational", false},
		{ToolCheckNetworkStatus, []string{"555-9999"}, "Phone number not found in our network.", true},
		{ToolCheckProductAvailability, []string{"PROD001"}, "Product: Wireless Headphones, Price: $99.99, Status: In Stock (50 units)", false},
		{ToolGetCustomerInfo, []string{"CUST003"}, "Customer: Bob Wilson, Email: bob.wilson@email.com, Phone: 555-0103, Domain: telecom", false},
		{ToolGetCustomerOrders, []string{"CUST001"}, "Your orders:\nOrder ORD001: shipped - $99.99\nOrder ORD002: delivered - $19.99", false},
		{ToolGetCustomerOrders, []string{"CUST999"}, "No orders found for this customer.", true},
		{ToolGetRecentTransactions, []string{"ACC001"}, "debit -$89.99 - Online Purchase", false},
		{ToolGetSystemStatus, nil, "System Status: Online | Banking: 2 customers | Ecommerce: 2 customers | Telecom: 1 customers", false},
	}
	for _, tc := range cases {
		res := f.gateway.Invoke(ctx, tc.tool, tc.args...)
		assert.Equal(t, tc.err, res.IsError, "%s %v: %s", tc.tool, tc.args, res.Text)
		assert.Contains(t, res.Text, tc.want, "%s %v", tc.tool, tc.args)
	}
}

func TestKnowledgeTools(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, time.Now())

	res := f.gateway.Invoke(ctx, ToolSearchEcommerceKnowledge, "return policy")
	require.False(t, res.IsError)
	assert.True(t, strings.HasPrefix(res.Text, "Here's what I found: Our return policy"), res.Text)

	res = f.gateway.Invoke(ctx, ToolSearchBankingKnowledge, "xylophone zebra quantum")
	assert.False(t, res.IsError)
	assert.Equal(t, "No relevant banking information found.", res.Text)

	res = f.gateway.Invoke(ctx, ToolSearchGeneralKnowledge, "account balance")
	assert.False(t, res.IsError)
	assert.True(t, strings.HasPrefix(res.Text, "General information found: To check your account balance"), res.Text)
	assert.Contains(t, res.Text, " | ")
}

func TestEscalationWindowIsFixed(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	f := newFixture(t, now)
	ctx := context.Background()

	var windows []string
	for _, p := range []string{"low", "", "HIGH", "urgent"} {
		res := f.gateway.Invoke(ctx, ToolEscalateToHuman, "card was charged twice", "CUST002", p)
		require.False(t, res.IsError, res.Text)
		assert.Contains(t, res.Text, "Escalation ID: ESC_20240305_143000_")
		idx := strings.Index(res.Text, "You will be contacted within")
		require.GreaterOrEqual(t, idx, 0)
		windows = append(windows, res.Text[idx:])
	}
	for _, w := range windows {
		assert.Equal(t, "You will be contacted within 2-4 hours during business hours.", w)
	}

	res := f.gateway.Invoke(ctx, ToolEscalateToHuman, "refund", "", "")
	assert.Contains(t, res.Text, "Priority: normal.")

	f.publisher.mu.Lock()
	published := len(f.publisher.payloads)
	f.publisher.mu.Unlock()
	assert.Equal(t, 5, published)
}

func TestEscalationPublishFailureIsLoggedOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	f.publisher.err = errors.New("qstash down")

	res := f.gateway.Invoke(context.Background(), ToolEscalateToHuman, "need a human", "CUST001", "high")
	assert.False(t, res.IsError)
	assert.Contains(t, res.Text, "Escalation ID: ESC_")
}

func TestNewEscalationIDFormat(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 12, 31, 23, 59, 58, 0, time.UTC)
	a := NewEscalationID(now)
	b := NewEscalationID(now)
	assert.Regexp(t, `^ESC_20251231_235958_[0-9a-f]{6}$`, a)
	assert.NotEqual(t, a, b)
}

func TestExecuteKeepsRequestOrder(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		order []string
	)
	slow := func(d time.Duration) Handler {
		return func(ctx context.Context, args []string) contractx.ToolResult {
			time.Sleep(d)
			mu.Lock()
			order = append(order, args[0])
			mu.Unlock()
			return contractx.OK("", "done "+args[0])
		}
	}
	g := MustNewGateway(
		Definition{Name: "slow", Params: []Param{{Name: "id", Required: true}}, Handler: slow(30 * time.Millisecond)},
		Definition{Name: "fast", Params: []Param{{Name: "id", Required: true}}, Handler: slow(0)},
	)

	results := g.Execute(context.Background(), []contractx.ToolCall{
		{Name: "slow", Args: []string{"1"}},
		{Name: "fast", Args: []string{"2"}},
		{Name: "missing"},
	})
	require.Len(t, results, 3)
	assert.Equal(t, "done 1", results[0].Text)
	assert.Equal(t, "slow", results[0].Tool)
	assert.Equal(t, "done 2", results[1].Text)
	assert.Equal(t, contractx.ErrorKindUnknownTool, results[2].Kind)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"2", "1"}, order)
}

func TestExecuteEmpty(t *testing.T) {
	t.Parallel()

	g := MustNewGateway()
	assert.Empty(t, g.Execute(context.Background(), nil))
}

func TestForDomainIncludesCommonTools(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	names := f.gateway.Names(contractx.DomainBanking)
	assert.Equal(t, []string{
		ToolGetAccountBalance, ToolGetRecentTransactions, ToolSearchBankingKnowledge, ToolCheckAccountStatus,
		ToolGetCustomerInfo, ToolSearchGeneralKnowledge, ToolValidateUserInput, ToolGetBusinessHours,
		ToolEscalateToHuman, ToolGetSystemStatus,
	}, names)

	infos := f.gateway.ForDomain(contractx.DomainTelecom)
	require.Len(t, infos, 10)
	assert.Equal(t, ToolGetTelecomAccountInfo, infos[0].Name)
	for _, info := range infos {
		assert.NotContains(t, []string{ToolGetOrderStatus, ToolGetAccountBalance}, info.Name)
	}
}

func TestValidateToolSet(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	assert.NoError(t, f.gateway.ValidateToolSet([]string{ToolGetOrderStatus, ToolEscalateToHuman}))
	err := f.gateway.ValidateToolSet([]string{ToolGetOrderStatus, "zeta", "alpha"})
	assert.True(t, errors.Is(err, contractx.ErrUnknownTool))
	assert.Contains(t, err.Error(), "alpha, zeta")
}

func TestDecodeArgs(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())

	args, err := f.gateway.DecodeArgs(ToolEscalateToHuman, `{"priority":"high","issue_description":"refund","customer_id":null}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"refund", "", "high"}, args)

	args, err = f.gateway.DecodeArgs(ToolValidateUserInput, `{"input_data":5551234567,"expected_format":"phone"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"5551234567", "phone"}, args)

	args, err = f.gateway.DecodeArgs(ToolGetBusinessHours, `{}`)
	require.NoError(t, err)
	assert.Nil(t, args)

	_, err = f.gateway.DecodeArgs(ToolGetOrderStatus, `{not json`)
	assert.True(t, errors.Is(err, contractx.ErrSchemaViolation))

	_, err = f.gateway.DecodeArgs("nope", `{}`)
	assert.True(t, errors.Is(err, contractx.ErrUnknownTool))
}
