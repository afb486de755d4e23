package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"figurestore/internal/pkg/mq"
	"figurestore/internal/service/order/domain/port"
)

// AlertKafkaAdapter 实现了 port.AlertPublisher 接口，把补偿失败推送到运维告警主题。
type AlertKafkaAdapter struct {
	writer mq.MessageWriter
}

// NewAlertKafkaAdapter 创建一个新的告警生产者适配器。
func NewAlertKafkaAdapter(writer mq.MessageWriter) *AlertKafkaAdapter {
	return &AlertKafkaAdapter{writer: writer}
}

// PublishCompensationFailed 以订单 ID 为 key 发送告警，同一订单的告警落在同一分区。
func (a *AlertKafkaAdapter) PublishCompensationFailed(ctx context.Context, alert port.CompensationAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal compensation alert: %w", err)
	}
	return mq.ProduceMessage(ctx, a.writer, []byte(alert.OrderID), payload)
}
