package saga

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"figurestore/internal/service/order/domain"
)

// ValidationHandler 校验购物车，失败时不会发生任何预占。
type ValidationHandler struct {
	NextHandler
}

func (h *ValidationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Validate")
	defer span.End()

	orderCtx.transition(ctx, domain.StateValidating)
	span.SetAttributes(attribute.Int("cart.positions", len(orderCtx.Cart.Positions)))

	if err := domain.ValidateCart(orderCtx.Cart); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Cart validation failed")
		return err
	}

	return h.executeNext(orderCtx)
}
