package port

import (
	"context"
	"time"

	"figurestore/internal/service/order/domain"
)

// CompensationAlert 描述一次无法自愈的补偿失败。
type CompensationAlert struct {
	OrderID    string          `json:"orderId"`
	TraceID    string          `json:"traceId"`
	Cause      string          `json:"cause"`
	Error      string          `json:"error"`
	Unreleased []domain.Ticket `json:"unreleased"`
	At         time.Time       `json:"at"`
}

// AlertPublisher 是运维告警通道的出站端口。
type AlertPublisher interface {
	PublishCompensationFailed(ctx context.Context, alert CompensationAlert) error
}
