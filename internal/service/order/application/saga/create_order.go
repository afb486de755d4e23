package saga

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"figurestore/internal/pkg/logger"
	"figurestore/internal/service/order/domain"
)

// PersistenceHandler 在所有位置预占成功后构建订单并交给仓储保存。
type PersistenceHandler struct {
	NextHandler
}

func (h *PersistenceHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Persist")
	defer span.End()

	orderCtx.transition(ctx, domain.StatePersisting)
	span.SetAttributes(attribute.String("order.id", orderCtx.AttemptID))

	order, err := domain.NewOrder(orderCtx.AttemptID, orderCtx.Cart)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to build order")
		return &domain.PersistenceFailedError{OrderID: orderCtx.AttemptID, Err: err}
	}
	orderCtx.Order = order

	confirmed, err := orderCtx.Repo.Save(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save order")
		return &domain.PersistenceFailedError{OrderID: order.ID, Err: err}
	}

	// 返回给调用方的是本地计算的总价，仓储确认值只用于核对
	if !confirmed.Equal(order.Total) {
		logger.Ctx(ctx).Warn().
			Str("order", order.ID).
			Str("computed", order.Total.String()).
			Str("confirmed", confirmed.String()).
			Msg("repository confirmed a different total")
	}

	if err := order.MarkAsCommitted(); err != nil {
		return &domain.PersistenceFailedError{OrderID: order.ID, Err: err}
	}
	orderCtx.Total = order.Total
	orderCtx.transition(ctx, domain.StateCommitted)
	span.AddEvent("Order saved")

	return h.executeNext(orderCtx)
}
