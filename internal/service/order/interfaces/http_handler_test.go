package interfaces

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figurestore/internal/pkg/metrics"
	"figurestore/internal/service/order/application"
	"figurestore/internal/service/order/domain"
	"figurestore/internal/service/order/infrastructure"
	"figurestore/internal/service/order/infrastructure/adapter"
)

func newTestServer(t *testing.T, seed map[string]int64) *httptest.Server {
	t.Helper()
	stock := adapter.NewStockMemoryAdapter(seed)
	coordinator := application.NewCoordinator(stock, infrastructure.NewMemoryOrderRepository(), nil,
		metrics.New(prometheus.NewRegistry()), nil, application.Options{})

	mux := http.NewServeMux()
	NewOrderHandler(coordinator, stock).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postOrder(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestPlaceOrderHandler(t *testing.T) {
	srv := newTestServer(t, map[string]int64{"triangle": 5, "square": 1})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed body", `{"positions":`, http.StatusBadRequest, "bad_request"},
		{"empty cart", `{"positions":[]}`, http.StatusBadRequest, "empty_cart"},
		{"invalid triangle", `{"positions":[{"figure":{"type":"triangle","a":1,"b":1,"c":3},"count":1}]}`, http.StatusBadRequest, "invalid_figure"},
		{"zero count", `{"positions":[{"figure":{"type":"square","side":1},"count":0}]}`, http.StatusBadRequest, "invalid_position"},
		{"out of stock", `{"positions":[{"figure":{"type":"square","side":1},"count":2}]}`, http.StatusConflict, "out_of_stock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := postOrder(t, srv, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCode, out["code"])
		})
	}

	t.Run("committed", func(t *testing.T) {
		resp, out := postOrder(t, srv, `{"positions":[
			{"figure":{"type":"triangle","a":3,"b":4,"c":5},"count":2},
			{"figure":{"type":"square","side":2},"count":1}
		]}`)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "11.2", out["total"])
		assert.Equal(t, string(domain.StateCommitted), out["state"])
		assert.NotEmpty(t, out["orderId"])
	})
}

func TestGetOrderHandler(t *testing.T) {
	srv := newTestServer(t, map[string]int64{"circle": 3})

	_, placed := postOrder(t, srv, `{"positions":[{"figure":{"type":"circle","radius":1},"count":1}]}`)
	id, ok := placed["orderId"].(string)
	require.True(t, ok)

	resp, err := http.Get(srv.URL + "/orders/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out application.OrderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, id, out.OrderID)
	assert.Equal(t, placed["total"], out.Total)
	assert.Equal(t, domain.StateCommitted, out.State)
	require.Len(t, out.Figures, 1)
	assert.Equal(t, "circle", out.Figures[0].Type)
	require.NotNil(t, out.Figures[0].Radius)
	assert.Equal(t, 1.0, *out.Figures[0].Radius)

	missing, err := http.Get(srv.URL + "/orders/does-not-exist")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	var errOut errorResponse
	require.NoError(t, json.NewDecoder(missing.Body).Decode(&errOut))
	assert.Equal(t, "order_not_found", errOut.Code)
	assert.False(t, errOut.Retryable)
}

func TestStockHandler(t *testing.T) {
	srv := newTestServer(t, map[string]int64{"circle": 7})

	resp, err := http.Get(srv.URL + "/stock?type=circle")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out stockResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, stockResponse{Type: "circle", Available: 7}, out)

	bad, err := http.Get(srv.URL + "/stock?type=hexagon")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestStatusOf(t *testing.T) {
	persistence := &domain.PersistenceFailedError{OrderID: "o", Err: errors.New("db")}
	tests := []struct {
		err  error
		want int
	}{
		{persistence, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: timeout", domain.ErrStockUnavailable), http.StatusServiceUnavailable},
		{&domain.CompensationFailedError{OrderID: "o", Cause: persistence, Err: errors.New("redis")}, http.StatusInternalServerError},
		{&domain.OutOfStockError{TypeKey: "square"}, http.StatusConflict},
		{fmt.Errorf("lookup: %w", domain.ErrOrderNotFound), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := statusOf(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
}
