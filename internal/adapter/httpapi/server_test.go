package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MagicCL33/Dashboard/internal/adapter/repository/kvstate"
	"github.com/MagicCL33/Dashboard/internal/adapter/repository/memory"
	"github.com/MagicCL33/Dashboard/internal/domain"
	"github.com/MagicCL33/Dashboard/internal/observability"
	"github.com/MagicCL33/Dashboard/internal/state"
	"github.com/MagicCL33/Dashboard/internal/usecase/assets"
	"github.com/MagicCL33/Dashboard/internal/usecase/pricegate"
	"github.com/MagicCL33/Dashboard/internal/usecase/projects"
	"github.com/MagicCL33/Dashboard/internal/usecase/snapshots"
	"github.com/MagicCL33/Dashboard/internal/usecase/trades"
	"github.com/MagicCL33/Dashboard/internal/usecase/valuation"
)

const testToken = "s3cret"

// MockPriceOracle is a mock implementation of PriceOracle for testing
type MockPriceOracle struct {
	mock.Mock
}

func (m *MockPriceOracle) Quotes(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	args := m.Called(ctx, symbols)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Quote), args.Error(1)
}

type testServer struct {
	handler http.Handler
	oracle  *MockPriceOracle
	snaps   *snapshots.SnapshotService
	now     time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	logger := zerolog.Nop()

	repo := kvstate.NewStateRepository(memory.NewBlobStore(), "", logger)
	store := state.NewStore(repo, logger, nil)
	require.NoError(t, store.Load(context.Background()))

	oracle := new(MockPriceOracle)
	gate := pricegate.NewGate(store, oracle, nil, logger, nil)
	gate.Now = clock

	assetSvc := assets.NewAssetService(store, gate, nil, logger)
	assetSvc.Now = clock
	projectSvc := projects.NewProjectService(store, nil, logger)
	projectSvc.Now = clock
	tradeSvc := trades.NewTradeService(store, nil, logger)
	tradeSvc.Now = clock
	snapSvc := snapshots.NewSnapshotService(store, nil, logger, nil)
	snapSvc.Now = clock

	health := observability.NewHealthChecker()
	health.SetReady(true)

	cfg := DefaultServerConfig()
	cfg.Token = testToken
	srv := NewServer(cfg, Services{
		Assets:    assetSvc,
		Gate:      gate,
		Projects:  projectSvc,
		Trades:    tradeSvc,
		Valuation: valuation.NewValuationService(store, "USD"),
		Snapshots: snapSvc,
	}, health, observability.NewMetrics(), logger)

	return &testServer{handler: srv.Handler(), oracle: oracle, snaps: snapSvc, now: now}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAuth(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "bearer", header: "Bearer " + testToken, want: http.StatusOK},
		{name: "raw token", header: testToken, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/assets", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			ts.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestProbesAreUnauthenticated(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAssetsFlow_BTCScenario(t *testing.T) {
	ts := newTestServer(t)
	ts.oracle.On("Quotes", mock.Anything, []string{"BTC"}).
		Return([]domain.Quote{{Symbol: "BTC", Price: dec("20000")}}, nil).Once()

	rec := ts.do(t, http.MethodPost, "/assets/transactions", map[string]any{
		"symbol": "BTC", "quantity": 0.5, "cost": "10000", "date": "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/assets/transactions", map[string]any{
		"symbol": "btc", "quantity": "0,25", "cost": 6000, "date": "2024-01-02",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	asset := decodeBody[domain.Asset](t, rec)
	assert.Equal(t, "BTC", asset.Symbol)
	assert.True(t, asset.Quantity.Equal(dec("0.75")))
	assert.True(t, asset.Invested.Equal(dec("16000")))
	assert.Len(t, asset.Lots, 2)

	rec = ts.do(t, http.MethodGet, "/valuation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeBody[valuation.Valuation](t, rec)
	assert.True(t, v.AssetsValue.Equal(dec("15000")), v.AssetsValue.String())
	assert.True(t, v.UnrealizedPnL.Equal(dec("-1000")))
	assert.True(t, v.PnLPercent.Equal(dec("-6.25")))

	// the gate already ran today
	ts.oracle.AssertNumberOfCalls(t, "Quotes", 1)
}

func TestAssets_AnnotateAndRemove(t *testing.T) {
	ts := newTestServer(t)
	ts.oracle.On("Quotes", mock.Anything, mock.Anything).Return([]domain.Quote{}, nil)

	ts.do(t, http.MethodPost, "/assets/transactions", map[string]any{"symbol": "eth", "quantity": 2, "cost": 3000})

	rec := ts.do(t, http.MethodPatch, "/assets/Eth", map[string]any{"name": "Ether"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ether", decodeBody[domain.Asset](t, rec).Name)

	rec = ts.do(t, http.MethodDelete, "/assets/ETH", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/assets/ETH", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/assets/ETH", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssets_BadBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/assets/transactions", `{"symbol":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.oracle.AssertNotCalled(t, "Quotes", mock.Anything, mock.Anything)
}

func TestRefreshPrices(t *testing.T) {
	ts := newTestServer(t)
	ts.oracle.On("Quotes", mock.Anything, []string{"SOL"}).Return(nil, errors.New("connection refused"))

	// the failed refresh after the add leaves the marker unset
	rec := ts.do(t, http.MethodPost, "/assets/transactions", map[string]any{"symbol": "SOL", "quantity": 1, "cost": 100})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/prices/refresh", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	ts.oracle.AssertNumberOfCalls(t, "Quotes", 2)
}

func TestRefreshPrices_SkipsWhenFresh(t *testing.T) {
	ts := newTestServer(t)
	ts.oracle.On("Quotes", mock.Anything, []string{"SOL"}).
		Return([]domain.Quote{{Symbol: "SOL", Price: dec("150")}}, nil).Once()

	ts.do(t, http.MethodPost, "/assets/transactions", map[string]any{"symbol": "SOL", "quantity": 1, "cost": 100})

	rec := ts.do(t, http.MethodPost, "/prices/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody[domain.RefreshOutcome](t, rec)
	assert.False(t, out.Refreshed)
	assert.Equal(t, domain.RefreshSkippedFresh, out.Skipped)
}

func TestProjectsFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/projects/actions", map[string]any{
		"project": "Layer Zero", "amount": "-50", "date": "2024-03-01", "wallet": "main", "targetGain": 1000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decodeBody[domain.Project](t, rec)

	rec = ts.do(t, http.MethodPost, "/projects/actions", map[string]any{
		"project": "layer zero", "amount": 120.5, "status": "Terminé",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	p2 := decodeBody[domain.Project](t, rec)
	assert.Equal(t, p.ID, p2.ID)
	assert.True(t, p2.NetBalance.Equal(dec("70.5")))
	assert.Equal(t, domain.ProjectStatusDone, p2.Status)
	require.NotNil(t, p2.TargetGain)
	assert.True(t, p2.TargetGain.Equal(dec("1000")))

	ts.do(t, http.MethodPost, "/projects/actions", map[string]any{"project": "Other", "amount": 1})

	rec = ts.do(t, http.MethodPatch, "/projects/"+p.ID.String(), map[string]any{"name": "OTHER"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/projects/"+p.ID.String()+"/entries/"+p.Entries[0].ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[domain.Project](t, rec).NetBalance.Equal(dec("120.5")))

	rec = ts.do(t, http.MethodGet, "/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.Project](t, rec), 2)

	rec = ts.do(t, http.MethodDelete, "/projects/"+p.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/projects/"+p.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjects_BlankTargetGainKeepsTarget(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/projects/actions", map[string]any{"project": "Foo", "amount": -5, "targetGain": 1000})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[domain.Project](t, rec).ID.String()

	for _, blank := range []any{"", "   ", nil} {
		rec = ts.do(t, http.MethodPost, "/projects/actions", map[string]any{"project": "foo", "amount": 20, "targetGain": blank})
		require.Equal(t, http.StatusCreated, rec.Code)
		p := decodeBody[domain.Project](t, rec)
		require.NotNil(t, p.TargetGain)
		assert.True(t, p.TargetGain.Equal(dec("1000")), "targetGain %v", blank)
	}

	rec = ts.do(t, http.MethodPatch, "/projects/"+id, map[string]any{"targetGain": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[domain.Project](t, rec).TargetGain.Equal(dec("1000")))

	rec = ts.do(t, http.MethodPatch, "/projects/"+id, map[string]any{"targetGain": "250"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[domain.Project](t, rec).TargetGain.Equal(dec("250")))
}

func TestProjects_InvalidIDs(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/projects/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/projects/"+uuid.NewString()+"/entries/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTradesFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/trades", map[string]any{
		"symbol": "btc", "side": "vente", "quantity": "0.1", "price": "30000",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	trade := decodeBody[domain.TradeAction](t, rec)
	assert.Equal(t, domain.TradeSideSell, trade.Side)
	assert.True(t, trade.Amount.Equal(dec("3000")))

	rec = ts.do(t, http.MethodGet, "/trades", nil)
	assert.Len(t, decodeBody[[]domain.TradeAction](t, rec), 1)

	rec = ts.do(t, http.MethodDelete, "/trades/"+trade.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/trades/"+trade.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSnapshots(t *testing.T) {
	ts := newTestServer(t)
	ts.oracle.On("Quotes", mock.Anything, mock.Anything).
		Return([]domain.Quote{{Symbol: "BTC", Price: dec("20000")}}, nil)

	ts.do(t, http.MethodPost, "/assets/transactions", map[string]any{"symbol": "BTC", "quantity": 1, "cost": 10000})
	captured, err := ts.snaps.MaybeCapture(context.Background())
	require.NoError(t, err)
	require.True(t, captured)

	rec := ts.do(t, http.MethodGet, "/snapshots?window=7d", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[snapshots.Stats](t, rec)
	assert.Equal(t, "7", stats.Window)
	assert.True(t, stats.Current.Equal(dec("20000")))
	assert.Len(t, stats.Points, 1)

	rec = ts.do(t, http.MethodGet, "/snapshots?window=bogus", nil)
	assert.Equal(t, "30", decodeBody[snapshots.Stats](t, rec).Window)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
