package infrastructure

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"figurestore/internal/service/order/domain"
)

// MemoryOrderRepository 是进程内的订单仓储，本地运行时在未配置 MySQL 的情况下使用。
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]*domain.Order)}
}

func (m *MemoryOrderRepository) Save(ctx context.Context, order *domain.Order) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.orders[order.ID]; ok {
		return existing.Total, nil
	}
	stored := *order
	stored.Figures = append([]domain.Figure(nil), order.Figures...)
	stored.Total = domain.Total(order.Figures)
	stored.State = domain.StateCommitted
	m.orders[order.ID] = &stored
	return stored.Total, nil
}

func (m *MemoryOrderRepository) FindByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}
