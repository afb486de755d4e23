// internal/service/order/domain/order.go
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Order 是订单聚合的根实体。每个已预占的位置对应一个图形。
type Order struct {
	ID        string
	Figures   []Figure
	Total     decimal.Decimal
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// 工厂函数: NewOrder 在所有预占成功后由购物车构建订单
func NewOrder(id string, cart Cart) (*Order, error) {
	if id == "" || len(cart.Positions) == 0 {
		return nil, errors.New("cannot create order with empty required fields")
	}

	figures := make([]Figure, 0, len(cart.Positions))
	for _, p := range cart.Positions {
		figures = append(figures, p.Figure)
	}

	now := time.Now()
	return &Order{
		ID:        id,
		Figures:   figures,
		Total:     Total(figures),
		State:     StatePersisting,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkAsCommitted 将订单标记为已提交
func (o *Order) MarkAsCommitted() error {
	if o.State != StatePersisting {
		return errors.New("order can only be committed from persisting state")
	}
	o.State = StateCommitted
	o.UpdatedAt = time.Now()
	return nil
}

// MarkAsRejected 将订单标记为被拒绝
func (o *Order) MarkAsRejected() {
	o.State = StateRejected
	o.UpdatedAt = time.Now()
}
