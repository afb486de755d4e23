package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"figurestore/internal/pkg/logger"
	"figurestore/internal/pkg/metrics"
	"figurestore/internal/service/order/domain"
	"figurestore/internal/service/order/domain/port"
)

const defaultCompensationTimeout = 5 * time.Second

// CompensationHandler 位于责任链的头部，管理整次尝试的“事务”生命周期：
// 链中任何环节返回错误（或 panic）时，释放所有已记录的预占。
type CompensationHandler struct {
	NextHandler
}

func (h *CompensationHandler) Handle(orderCtx *OrderContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic recovered: %v", r)
		}
		if err == nil {
			return
		}

		orderCtx.transition(orderCtx.Ctx, domain.StateRejected)
		if orderCtx.Order != nil {
			orderCtx.Order.MarkAsRejected()
		}
		if tickets := orderCtx.Tickets(); len(tickets) > 0 {
			err = h.compensate(orderCtx, tickets, err)
		}
	}()

	return h.executeNext(orderCtx)
}

// compensate 在脱离请求生命周期的上下文中释放预占：
// 请求被取消或超时后，补偿依然要完成，同时保持与原链路的关联。
func (h *CompensationHandler) compensate(orderCtx *OrderContext, tickets []domain.Ticket, cause error) error {
	spanContext := trace.SpanContextFromContext(orderCtx.Ctx)
	detached := trace.ContextWithRemoteSpanContext(context.Background(), spanContext)

	timeout := orderCtx.CompensationTimeout
	if timeout <= 0 {
		timeout = defaultCompensationTimeout
	}
	compCtx, cancel := context.WithTimeout(detached, timeout)
	defer cancel()

	compCtx, span := orderCtx.Tracer.Start(compCtx, "saga.compensation.Release")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", orderCtx.AttemptID),
		attribute.Int("tickets", len(tickets)),
	)

	log := logger.Ctx(compCtx)
	log.Warn().Err(cause).Str("attempt", orderCtx.AttemptID).Int("tickets", len(tickets)).
		Msg("order attempt failed, releasing reservations")

	var (
		unreleased []domain.Ticket
		releaseErr error
	)
	for i := len(tickets) - 1; i >= 0; i-- {
		t := tickets[i]
		if err := orderCtx.Stock.Release(compCtx, orderCtx.AttemptID, t.TypeKey, t.Quantity); err != nil {
			orderCtx.Metrics.ObserveRelease(metrics.ResultFailed)
			unreleased = append(unreleased, t)
			releaseErr = errors.Join(releaseErr, fmt.Errorf("release %d of %q: %w", t.Quantity, t.TypeKey, err))
			continue
		}
		orderCtx.Metrics.ObserveRelease(metrics.ResultOK)
	}

	if releaseErr == nil {
		span.AddEvent("All reservations released")
		return cause
	}

	compErr := &domain.CompensationFailedError{
		OrderID:    orderCtx.AttemptID,
		Cause:      cause,
		Unreleased: unreleased,
		Err:        releaseErr,
	}
	span.RecordError(compErr)
	span.SetStatus(codes.Error, "Compensation failed")
	orderCtx.Metrics.ObserveCompensationFailure()
	log.Error().Err(compErr).Str("attempt", orderCtx.AttemptID).Interface("unreleased", unreleased).
		Msg("CRITICAL: reserved stock could not be released, manual correction required")

	if orderCtx.Alerts != nil {
		alert := port.CompensationAlert{
			OrderID:    orderCtx.AttemptID,
			TraceID:    spanContext.TraceID().String(),
			Cause:      cause.Error(),
			Error:      releaseErr.Error(),
			Unreleased: unreleased,
			At:         time.Now().UTC(),
		}
		if err := orderCtx.Alerts.PublishCompensationFailed(compCtx, alert); err != nil {
			log.Error().Err(err).Str("attempt", orderCtx.AttemptID).Msg("failed to publish compensation alert")
		}
	}
	return compErr
}
