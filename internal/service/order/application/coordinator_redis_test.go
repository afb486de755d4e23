package application

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figurestore/internal/pkg/metrics"
	"figurestore/internal/pkg/redis"
	"figurestore/internal/service/order/domain"
	"figurestore/internal/service/order/infrastructure"
	"figurestore/internal/service/order/infrastructure/adapter"
)

// lostReply 在第 lose 次 EVALSHA 执行完成后丢弃回复，模拟读超时
type lostReply struct {
	lose  int32
	calls atomic.Int32
}

func (h *lostReply) DialHook(next goredis.DialHook) goredis.DialHook { return next }

func (h *lostReply) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		if err := next(ctx, cmd); err != nil {
			return err
		}
		if cmd.Name() == "evalsha" && h.calls.Add(1) == h.lose {
			err := errors.New("read tcp: i/o timeout")
			cmd.SetErr(err)
			return err
		}
		return nil
	}
}

func (h *lostReply) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return next
}

func TestPlaceOrder_LostReserveReplyIsCompensated(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	rdb.AddHook(&lostReply{lose: 2})

	stock, err := adapter.NewStockRedisAdapter(redis.Wrap(rdb))
	require.NoError(t, err)
	require.NoError(t, stock.SetStock(ctx, "square", 5))
	require.NoError(t, stock.SetStock(ctx, "circle", 5))

	c, m, alerts := newCoordinator(stock, infrastructure.NewMemoryOrderRepository(), Options{})
	_, err = c.PlaceOrder(ctx, cartOf(
		domain.Position{Figure: domain.Square{Side: 1}, Count: 2},
		domain.Position{Figure: domain.Circle{Radius: 1}, Count: 3},
	))
	require.ErrorIs(t, err, domain.ErrStockUnavailable)
	assert.NotErrorIs(t, err, domain.ErrCompensationFailed)

	for _, typeKey := range []string{"square", "circle"} {
		n, err := stock.Available(ctx, typeKey)
		require.NoError(t, err)
		assert.EqualValues(t, 5, n, "%s stock must be restored", typeKey)
	}
	assert.ElementsMatch(t, []string{"figures:stock:{square}", "figures:stock:{circle}"}, mr.Keys(),
		"no reservation ledger survives compensation")
	assert.Empty(t, alerts.alerts)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Releases.WithLabelValues(metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Orders.WithLabelValues(OutcomeUnavailable)))
}
