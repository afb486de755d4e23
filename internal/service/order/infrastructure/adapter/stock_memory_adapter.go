package adapter

import (
	"context"
	"sync"
	"time"

	"figurestore/internal/service/order/domain"
)

type heldReservation struct {
	quantity int64
	expires  time.Time
}

// StockMemoryAdapter 是 port.StockStore 的进程内实现，用于本地运行和测试。
// 互斥锁只保护计数器和台账本身，相当于后端存储自身的原子性。
type StockMemoryAdapter struct {
	mu     sync.Mutex
	stock  map[string]int64
	ledger map[string]heldReservation
	now    func() time.Time
}

func NewStockMemoryAdapter(seed map[string]int64) *StockMemoryAdapter {
	stock := make(map[string]int64, len(seed))
	for k, v := range seed {
		stock[k] = v
	}
	return &StockMemoryAdapter{
		stock:  stock,
		ledger: make(map[string]heldReservation),
		now:    time.Now,
	}
}

func (a *StockMemoryAdapter) ReserveAtomic(ctx context.Context, attemptID, typeKey string, quantity int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable(err)
	}
	if err := checkReservation(attemptID, typeKey, quantity); err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	current := a.stock[typeKey]
	if quantity > current {
		return 0, &domain.OutOfStockError{TypeKey: typeKey, Requested: quantity, Available: current}
	}
	a.stock[typeKey] = current - quantity

	now := a.now()
	a.sweepLocked(now)
	key := ledgerKey(typeKey, attemptID)
	held := a.ledger[key]
	a.ledger[key] = heldReservation{quantity: held.quantity + quantity, expires: now.Add(reservationLedgerTTL)}
	return current - quantity, nil
}

// Release 只归还台账中仍持有的数量，与 Redis 实现的语义一致
func (a *StockMemoryAdapter) Release(ctx context.Context, attemptID, typeKey string, quantity int64) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	if err := checkReservation(attemptID, typeKey, quantity); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.sweepLocked(a.now())
	key := ledgerKey(typeKey, attemptID)
	held, ok := a.ledger[key]
	if !ok {
		return nil
	}
	n := min(quantity, held.quantity)
	a.stock[typeKey] += n
	if held.quantity > n {
		held.quantity -= n
		a.ledger[key] = held
	} else {
		delete(a.ledger, key)
	}
	return nil
}

// sweepLocked 丢弃已过期的台账条目，调用方必须持有锁
func (a *StockMemoryAdapter) sweepLocked(now time.Time) {
	for key, held := range a.ledger {
		if !now.Before(held.expires) {
			delete(a.ledger, key)
		}
	}
}

func (a *StockMemoryAdapter) SetStock(_ context.Context, typeKey string, quantity int64) error {
	a.mu.Lock()
	a.stock[typeKey] = quantity
	a.mu.Unlock()
	return nil
}

func (a *StockMemoryAdapter) Available(_ context.Context, typeKey string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stock[typeKey], nil
}
