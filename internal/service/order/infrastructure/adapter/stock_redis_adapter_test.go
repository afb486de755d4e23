package adapter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figurestore/internal/pkg/redis"
	"figurestore/internal/service/order/domain"
)

// lostReplyHook 让脚本在服务端正常执行，但把之后 n 次 EVALSHA 的回复替换成超时错误
type lostReplyHook struct {
	remaining atomic.Int32
}

func (h *lostReplyHook) DialHook(next goredis.DialHook) goredis.DialHook { return next }

func (h *lostReplyHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		if err := next(ctx, cmd); err != nil {
			return err
		}
		if cmd.Name() == "evalsha" && h.remaining.Add(-1) >= 0 {
			err := fmt.Errorf("read tcp 127.0.0.1:6379: i/o timeout")
			cmd.SetErr(err)
			return err
		}
		return nil
	}
}

func (h *lostReplyHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return next
}

func newTestRedisAdapter(t *testing.T) (*StockRedisAdapter, *miniredis.Miniredis) {
	t.Helper()
	a, mr, _ := newHookedRedisAdapter(t)
	return a, mr
}

func newHookedRedisAdapter(t *testing.T) (*StockRedisAdapter, *miniredis.Miniredis, *lostReplyHook) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	hook := &lostReplyHook{}
	rdb.AddHook(hook)

	a, err := NewStockRedisAdapter(redis.Wrap(rdb))
	require.NoError(t, err)
	return a, mr, hook
}

func TestStockRedisAdapter_ReserveAtomic(t *testing.T) {
	ctx := context.Background()
	a, mr := newTestRedisAdapter(t)
	require.NoError(t, a.SetStock(ctx, "square", 3))

	t.Run("insufficient stock leaves the count untouched", func(t *testing.T) {
		_, err := a.ReserveAtomic(ctx, "a1", "square", 5)
		require.ErrorIs(t, err, domain.ErrOutOfStock)

		var oos *domain.OutOfStockError
		require.ErrorAs(t, err, &oos)
		assert.Equal(t, "square", oos.TypeKey)
		assert.EqualValues(t, 5, oos.Requested)
		assert.EqualValues(t, 3, oos.Available)

		got, err := mr.Get("figures:stock:{square}")
		require.NoError(t, err)
		assert.Equal(t, "3", got)
		assert.False(t, mr.Exists("figures:resv:{square}:a1"))
	})

	t.Run("exact quantity empties the pool and records the attempt", func(t *testing.T) {
		remaining, err := a.ReserveAtomic(ctx, "a1", "square", 3)
		require.NoError(t, err)
		assert.EqualValues(t, 0, remaining)

		held, err := mr.Get("figures:resv:{square}:a1")
		require.NoError(t, err)
		assert.Equal(t, "3", held)
		assert.Equal(t, reservationLedgerTTL, mr.TTL("figures:resv:{square}:a1"))
	})

	t.Run("missing key counts as zero", func(t *testing.T) {
		_, err := a.ReserveAtomic(ctx, "a1", "circle", 1)
		assert.ErrorIs(t, err, domain.ErrOutOfStock)
		assert.False(t, mr.Exists("figures:stock:{circle}"))
	})

	t.Run("non-positive quantity is rejected", func(t *testing.T) {
		_, err := a.ReserveAtomic(ctx, "a1", "square", 0)
		assert.Error(t, err)
	})

	t.Run("attempt id is required", func(t *testing.T) {
		_, err := a.ReserveAtomic(ctx, "", "square", 1)
		assert.Error(t, err)
	})
}

func TestStockRedisAdapter_Release(t *testing.T) {
	ctx := context.Background()
	a, mr := newTestRedisAdapter(t)
	require.NoError(t, a.SetStock(ctx, "triangle", 4))

	_, err := a.ReserveAtomic(ctx, "a1", "triangle", 3)
	require.NoError(t, err)

	require.NoError(t, a.Release(ctx, "someone-else", "triangle", 3))
	available, err := a.Available(ctx, "triangle")
	require.NoError(t, err)
	assert.EqualValues(t, 1, available, "release without a ledger entry is a no-op")

	require.NoError(t, a.Release(ctx, "a1", "triangle", 3))
	require.NoError(t, a.Release(ctx, "a1", "triangle", 3))
	available, err = a.Available(ctx, "triangle")
	require.NoError(t, err)
	assert.EqualValues(t, 4, available, "double release returns the stock once")
	assert.False(t, mr.Exists("figures:resv:{triangle}:a1"))

	available, err = a.Available(ctx, "circle")
	require.NoError(t, err)
	assert.Zero(t, available)
}

func TestStockRedisAdapter_PartialReleaseKeepsRemainder(t *testing.T) {
	ctx := context.Background()
	a, mr := newTestRedisAdapter(t)
	require.NoError(t, a.SetStock(ctx, "circle", 5))

	_, err := a.ReserveAtomic(ctx, "a1", "circle", 4)
	require.NoError(t, err)
	require.NoError(t, a.Release(ctx, "a1", "circle", 1))

	held, err := mr.Get("figures:resv:{circle}:a1")
	require.NoError(t, err)
	assert.Equal(t, "3", held)

	require.NoError(t, a.Release(ctx, "a1", "circle", 10))
	available, err := a.Available(ctx, "circle")
	require.NoError(t, err)
	assert.EqualValues(t, 5, available)
}

func TestStockRedisAdapter_LostReplyCanBeReleased(t *testing.T) {
	ctx := context.Background()
	a, _, hook := newHookedRedisAdapter(t)
	require.NoError(t, a.SetStock(ctx, "square", 5))

	hook.remaining.Store(1)
	_, err := a.ReserveAtomic(ctx, "a1", "square", 2)
	require.ErrorIs(t, err, domain.ErrStockUnavailable)

	available, err := a.Available(ctx, "square")
	require.NoError(t, err)
	assert.EqualValues(t, 3, available, "the script ran even though the caller saw an error")

	require.NoError(t, a.Release(ctx, "a1", "square", 2))
	require.NoError(t, a.Release(ctx, "a1", "square", 2))
	available, err = a.Available(ctx, "square")
	require.NoError(t, err)
	assert.EqualValues(t, 5, available)
}

func TestStockRedisAdapter_StoreDown(t *testing.T) {
	ctx := context.Background()
	a, mr := newTestRedisAdapter(t)
	mr.Close()

	_, err := a.ReserveAtomic(ctx, "a1", "square", 1)
	assert.ErrorIs(t, err, domain.ErrStockUnavailable)
	assert.ErrorIs(t, a.Release(ctx, "a1", "square", 1), domain.ErrStockUnavailable)
}

func TestStockRedisAdapter_ConcurrentReserveNeverOversells(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestRedisAdapter(t)
	require.NoError(t, a.SetStock(ctx, "circle", 10))

	var (
		wg        sync.WaitGroup
		successes atomic.Int64
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(attemptID string) {
			defer wg.Done()
			if _, err := a.ReserveAtomic(ctx, attemptID, "circle", 1); err == nil {
				successes.Add(1)
			}
		}(fmt.Sprintf("attempt-%d", i))
	}
	wg.Wait()

	assert.EqualValues(t, 10, successes.Load())
	available, err := a.Available(ctx, "circle")
	require.NoError(t, err)
	assert.Zero(t, available)
}
