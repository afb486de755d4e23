package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"figurestore/internal/pkg/redis"
	"figurestore/internal/service/order/domain"
)

const (
	reserveScriptName = "reserve_stock"
	releaseScriptName = "release_stock"

	// 台账只需要活过一次尝试的补偿窗口
	reservationLedgerTTL = 24 * time.Hour
)

// StockRedisAdapter 是 port.StockStore 接口的 Redis 实现。
// 预占通过 Lua 脚本在一次往返内完成检查与扣减，Redis 单线程执行脚本保证了同一 key 上的串行化。
// 台账 key 与库存 key 共享同一个 hash tag，集群模式下两者落在同一个 slot。
type StockRedisAdapter struct {
	redisClient *redis.Client
}

// NewStockRedisAdapter 创建一个新的库存适配器实例，并加载预占和释放脚本。
func NewStockRedisAdapter(redisClient *redis.Client) (*StockRedisAdapter, error) {
	if err := redisClient.LoadScriptFromContent(reserveScriptName, reserveScript); err != nil {
		return nil, fmt.Errorf("failed to load critical reserve script: %w", err)
	}
	if err := redisClient.LoadScriptFromContent(releaseScriptName, releaseScript); err != nil {
		return nil, fmt.Errorf("failed to load critical release script: %w", err)
	}
	return &StockRedisAdapter{redisClient: redisClient}, nil
}

func stockKey(typeKey string) string {
	return fmt.Sprintf("figures:stock:{%s}", typeKey)
}

func ledgerKey(typeKey, attemptID string) string {
	return fmt.Sprintf("figures:resv:{%s}:%s", typeKey, attemptID)
}

// ReserveAtomic 实现了原子的条件扣减，并把扣减数量记入该尝试的台账
func (a *StockRedisAdapter) ReserveAtomic(ctx context.Context, attemptID, typeKey string, quantity int64) (int64, error) {
	if err := checkReservation(attemptID, typeKey, quantity); err != nil {
		return 0, err
	}

	keys := []string{stockKey(typeKey), ledgerKey(typeKey, attemptID)}
	result, err := a.redisClient.RunScript(ctx, reserveScriptName, keys, quantity, int64(reservationLedgerTTL/time.Second))
	if err != nil {
		return 0, unavailable(errors.Wrapf(err, "reserve %q", typeKey))
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return 0, unavailable(fmt.Errorf("unexpected result from reserve script: %#v", result))
	}
	code, okCode := values[0].(int64)
	amount, okAmount := values[1].(int64)
	if !okCode || !okAmount {
		return 0, unavailable(fmt.Errorf("unexpected result types from reserve script: %T, %T", values[0], values[1]))
	}

	switch code {
	case 1:
		return amount, nil
	case 0:
		return 0, &domain.OutOfStockError{TypeKey: typeKey, Requested: quantity, Available: amount}
	default:
		return 0, unavailable(fmt.Errorf("unknown result code from reserve script: %d", code))
	}
}

// Release 只归还该尝试在台账中仍持有的数量，重复释放或释放未发生的预占都是空操作
func (a *StockRedisAdapter) Release(ctx context.Context, attemptID, typeKey string, quantity int64) error {
	if err := checkReservation(attemptID, typeKey, quantity); err != nil {
		return err
	}

	keys := []string{stockKey(typeKey), ledgerKey(typeKey, attemptID)}
	if _, err := a.redisClient.RunScript(ctx, releaseScriptName, keys, quantity); err != nil {
		return unavailable(errors.Wrapf(err, "release %q", typeKey))
	}
	return nil
}

// SetStock (初始化和管理用) 直接设置某类图形的库存
func (a *StockRedisAdapter) SetStock(ctx context.Context, typeKey string, quantity int64) error {
	if err := a.redisClient.GetClient().Set(ctx, stockKey(typeKey), quantity, 0).Err(); err != nil {
		return errors.Wrapf(err, "failed to set stock for %q", typeKey)
	}
	return nil
}

// Available 读取当前可用库存，key 不存在视为 0
func (a *StockRedisAdapter) Available(ctx context.Context, typeKey string) (int64, error) {
	n, err := a.redisClient.GetClient().Get(ctx, stockKey(typeKey)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable(errors.Wrapf(err, "read stock %q", typeKey))
	}
	return n, nil
}

func checkReservation(attemptID, typeKey string, quantity int64) error {
	if attemptID == "" {
		return fmt.Errorf("stock %q: attempt id is required", typeKey)
	}
	if quantity <= 0 {
		return fmt.Errorf("stock %q: quantity must be positive, got %d", typeKey, quantity)
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStockUnavailable, err)
}

var reserveScript = `
-- KEYS[1]: 库存 Key, 例如: figures:stock:{circle}
-- KEYS[2]: 本次尝试的台账 Key, 例如: figures:resv:{circle}:<attempt>
-- ARGV[1]: 预占数量
-- ARGV[2]: 台账过期秒数
-- 返回 {1, 剩余库存} 表示成功; {0, 当前库存} 表示库存不足且未做任何修改

local qty = tonumber(ARGV[1])
local stock = tonumber(redis.call('get', KEYS[1]) or '0')

if qty > stock then
    return {0, stock}
end

local remaining = redis.call('decrby', KEYS[1], qty)
redis.call('incrby', KEYS[2], qty)
redis.call('expire', KEYS[2], tonumber(ARGV[2]))
return {1, remaining}
`

var releaseScript = `
-- KEYS[1]: 库存 Key
-- KEYS[2]: 本次尝试的台账 Key
-- ARGV[1]: 希望归还的数量
-- 返回实际归还的数量，不超过台账中仍持有的数量

local qty = tonumber(ARGV[1])
local held = tonumber(redis.call('get', KEYS[2]) or '0')
if held <= 0 then
    return 0
end

local n = qty
if held < n then
    n = held
end
redis.call('incrby', KEYS[1], n)
if held > n then
    redis.call('decrby', KEYS[2], n)
else
    redis.call('del', KEYS[2])
end
return n
`
