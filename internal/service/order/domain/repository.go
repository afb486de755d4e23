// internal/service/order/domain/repository.go
package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。
type OrderRepository interface {
	// Save 持久化订单并返回仓储独立确认的总价。
	// 以 order.ID 作为幂等键：重复保存同一订单返回已存储的总价。
	Save(ctx context.Context, order *Order) (decimal.Decimal, error)

	// FindByID 根据 ID 查找一个订单。
	FindByID(ctx context.Context, id string) (*Order, error)
}
