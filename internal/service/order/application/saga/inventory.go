package saga

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"figurestore/internal/pkg/metrics"
	"figurestore/internal/service/order/domain"
)

// ReservationHandler 按购物车顺序为每个位置原子地预占库存。
// 任何一个位置失败都会中断流程，已记录的预占由 CompensationHandler 释放。
type ReservationHandler struct {
	NextHandler
}

func (h *ReservationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Reserve")
	defer span.End()

	orderCtx.transition(ctx, domain.StateReserving)
	span.SetAttributes(attribute.Bool("reserve.parallel", orderCtx.Parallel))

	var err error
	if orderCtx.Parallel {
		err = h.reserveParallel(ctx, orderCtx)
	} else {
		err = h.reserveSequential(ctx, orderCtx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Stock reservation failed")
		return err
	}

	span.AddEvent("All positions reserved")
	return h.executeNext(orderCtx)
}

func (h *ReservationHandler) reserveSequential(ctx context.Context, orderCtx *OrderContext) error {
	for _, p := range orderCtx.Cart.Positions {
		ticket, err := reserve(ctx, orderCtx, p)
		if ticket != nil {
			orderCtx.AddTicket(*ticket)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// reserveParallel 并发预占所有位置。每个 goroutine 只写自己的下标，
// 所有调用结束后才收集预占，并按购物车顺序报告第一个失败。
func (h *ReservationHandler) reserveParallel(ctx context.Context, orderCtx *OrderContext) error {
	positions := orderCtx.Cart.Positions
	tickets := make([]*domain.Ticket, len(positions))
	errs := make([]error, len(positions))

	var g errgroup.Group
	for i, p := range positions {
		g.Go(func() error {
			ticket, err := reserve(ctx, orderCtx, p)
			tickets[i] = ticket
			errs[i] = err
			return err
		})
	}
	// Wait 只用来汇合，返回的错误按完成先后排序，这里以 errs 的顺序为准
	_ = g.Wait()

	for _, t := range tickets {
		if t != nil {
			orderCtx.AddTicket(*t)
		}
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// reserve 预占一个位置。除了成功之外，结果未知的失败（超时、连接中断）同样返回一张
// Uncertain 预占凭证：脚本可能已经执行，补偿时按尝试 ID 做条件释放。
// 明确的库存不足不会修改计数，因此不返回凭证。
func reserve(ctx context.Context, orderCtx *OrderContext, p domain.Position) (*domain.Ticket, error) {
	typeKey := string(p.Figure.Kind())
	quantity := int64(p.Count)

	_, err := orderCtx.Stock.ReserveAtomic(ctx, orderCtx.AttemptID, typeKey, quantity)
	switch {
	case err == nil:
		orderCtx.Metrics.ObserveReservation(typeKey, metrics.ResultOK)
		return &domain.Ticket{TypeKey: typeKey, Quantity: quantity}, nil
	case errors.Is(err, domain.ErrOutOfStock):
		orderCtx.Metrics.ObserveReservation(typeKey, metrics.ResultOutOfStock)
		return nil, err
	}

	orderCtx.Metrics.ObserveReservation(typeKey, metrics.ResultUnavailable)
	uncertain := &domain.Ticket{TypeKey: typeKey, Quantity: quantity, Uncertain: true}
	if !errors.Is(err, domain.ErrStockUnavailable) {
		err = fmt.Errorf("%w: reserve %q: %w", domain.ErrStockUnavailable, typeKey, err)
	}
	return uncertain, err
}
