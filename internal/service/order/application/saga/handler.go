package saga

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"

	"figurestore/internal/pkg/logger"
	"figurestore/internal/pkg/metrics"
	"figurestore/internal/service/order/domain"
	"figurestore/internal/service/order/domain/port"
)

// OrderContext 在 Saga 流程中传递一次订单尝试的全部数据。
// 它只属于一次尝试，不在请求之间共享。
type OrderContext struct {
	Ctx       context.Context
	AttemptID string // 同时作为订单 ID 和仓储的幂等键
	Cart      domain.Cart
	Order     *domain.Order
	State     domain.State
	Total     decimal.Decimal
	Tracer    trace.Tracer

	// 依赖出站端口
	Stock   port.StockStore
	Repo    domain.OrderRepository
	Alerts  port.AlertPublisher
	Metrics *metrics.Collector

	Parallel            bool
	CompensationTimeout time.Duration

	// 只由执行链的 goroutine 读写，并行预占在汇合之后才追加
	tickets []domain.Ticket
}

// AddTicket 记录一次预占（包括结果未知的预占），补偿时按相反顺序释放。
func (c *OrderContext) AddTicket(t domain.Ticket) {
	c.tickets = append(c.tickets, t)
}

// Tickets 返回已记录预占的副本。
func (c *OrderContext) Tickets() []domain.Ticket {
	return append([]domain.Ticket(nil), c.tickets...)
}

func (c *OrderContext) transition(ctx context.Context, next domain.State) {
	logger.Ctx(ctx).Debug().
		Str("attempt", c.AttemptID).
		Str("from", string(c.State)).
		Str("to", string(next)).
		Msg("order state transition")
	c.State = next
}

type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}
