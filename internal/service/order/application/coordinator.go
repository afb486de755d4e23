// internal/service/order/application/coordinator.go
package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"figurestore/internal/pkg/logger"
	"figurestore/internal/pkg/metrics"
	"figurestore/internal/service/order/application/saga"
	"figurestore/internal/service/order/domain"
	"figurestore/internal/service/order/domain/port"
)

// 订单结果标签
const (
	OutcomeCommitted          = "committed"
	OutcomeInvalid            = "invalid"
	OutcomeOutOfStock         = "out_of_stock"
	OutcomeUnavailable        = "unavailable"
	OutcomePersistenceFailed  = "persistence_failed"
	OutcomeCompensationFailed = "compensation_failed"
	OutcomeError              = "error"
)

// Options 控制预占方式和超时。
type Options struct {
	Parallel            bool
	ProcessingTimeout   time.Duration
	CompensationTimeout time.Duration
}

// Receipt 是成功下单的结果。
type Receipt struct {
	OrderID string
	Total   decimal.Decimal
	State   domain.State
}

// Coordinator 编排一次下单尝试：校验、预占、保存，失败时补偿。
// 它本身不持有任何锁或库存缓存，所有并发安全由库存存储的原子操作保证。
type Coordinator struct {
	stock   port.StockStore
	repo    domain.OrderRepository
	alerts  port.AlertPublisher
	metrics *metrics.Collector
	tracer  trace.Tracer
	opts    Options
}

// NewCoordinator 创建协调器。alerts、m 和 tracer 可以为 nil。
func NewCoordinator(stock port.StockStore, repo domain.OrderRepository, alerts port.AlertPublisher,
	m *metrics.Collector, tracer trace.Tracer, opts Options) *Coordinator {
	if tracer == nil {
		tracer = otel.Tracer("figurestore/order")
	}
	return &Coordinator{stock: stock, repo: repo, alerts: alerts, metrics: m, tracer: tracer, opts: opts}
}

// PlaceOrder 执行完整的下单流程。成功时返回按本地计算的总价；
// 失败时返回的错误可以用 errors.Is 匹配 domain 中的哨兵错误。
func (c *Coordinator) PlaceOrder(ctx context.Context, cart domain.Cart) (*Receipt, error) {
	started := time.Now()
	ctx, span := c.tracer.Start(ctx, "app.PlaceOrder")
	defer span.End()

	if c.opts.ProcessingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.ProcessingTimeout)
		defer cancel()
	}

	orderCtx := &saga.OrderContext{
		Ctx:                 ctx,
		AttemptID:           uuid.NewString(),
		Cart:                cart,
		Tracer:              c.tracer,
		Stock:               c.stock,
		Repo:                c.repo,
		Alerts:              c.alerts,
		Metrics:             c.metrics,
		Parallel:            c.opts.Parallel,
		CompensationTimeout: c.opts.CompensationTimeout,
	}
	span.SetAttributes(
		attribute.String("order.id", orderCtx.AttemptID),
		attribute.Int("cart.positions", len(cart.Positions)),
	)

	err := c.buildChain().Handle(orderCtx)
	outcome := outcomeOf(err)
	c.metrics.ObserveOrder(outcome, started)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Order attempt rejected")
		ev := logger.Ctx(ctx).Warn()
		if errors.Is(err, domain.ErrCompensationFailed) {
			ev = logger.Ctx(ctx).Error()
		}
		ev.Err(err).Str("attempt", orderCtx.AttemptID).Str("outcome", outcome).Msg("order rejected")
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Str("order", orderCtx.AttemptID).
		Str("total", orderCtx.Total.String()).
		Msg("order committed")
	return &Receipt{OrderID: orderCtx.AttemptID, Total: orderCtx.Total, State: orderCtx.State}, nil
}

// GetOrder 读取一个已提交的订单，不存在时返回 domain.ErrOrderNotFound。
func (c *Coordinator) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := c.tracer.Start(ctx, "app.GetOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	order, err := c.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, domain.ErrOrderNotFound) {
			span.SetStatus(codes.Error, "Failed to load order")
			logger.Ctx(ctx).Error().Err(err).Str("order", id).Msg("failed to load order")
		}
		return nil, err
	}
	return order, nil
}

func (c *Coordinator) buildChain() saga.Handler {
	chain := new(saga.CompensationHandler)
	chain.
		SetNext(new(saga.ValidationHandler)).
		SetNext(new(saga.ReservationHandler)).
		SetNext(new(saga.PersistenceHandler))
	return chain
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeCommitted
	case errors.Is(err, domain.ErrCompensationFailed):
		return OutcomeCompensationFailed
	case errors.Is(err, domain.ErrInvalidFigure), errors.Is(err, domain.ErrInvalidPosition), errors.Is(err, domain.ErrEmptyCart):
		return OutcomeInvalid
	case errors.Is(err, domain.ErrOutOfStock):
		return OutcomeOutOfStock
	case errors.Is(err, domain.ErrStockUnavailable):
		return OutcomeUnavailable
	case errors.Is(err, domain.ErrPersistenceFailed):
		return OutcomePersistenceFailed
	default:
		return OutcomeError
	}
}
