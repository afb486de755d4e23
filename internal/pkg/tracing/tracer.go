// internal/pkg/tracing/tracer.go
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"figurestore/internal/pkg/logger"
)

// Options 描述下单服务的链路追踪配置。
type Options struct {
	ServiceName string
	// Endpoint 为空时只在进程内生成 Span，不导出，本地运行不需要 Jaeger
	Endpoint string
	// SampleRatio 只作用于链路的根 Span，下游服务跟随上游的采样决定
	SampleRatio float64
}

// InitTracerProvider 创建并注册全局 TracerProvider，调用方负责在退出时 Shutdown。
func InitTracerProvider(opts Options) (*sdktrace.TracerProvider, error) {
	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
		// 服务名决定了 Span 在 Jaeger UI 中归属哪个服务
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.ServiceName),
		)),
	}

	if opts.Endpoint != "" {
		exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.Endpoint)))
		if err != nil {
			return nil, err
		}
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(providerOpts...)

	otel.SetTracerProvider(tp)
	// 补偿在脱离请求的上下文里运行，仍靠 traceparent 与原请求关联
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	ev := logger.Ctx(context.Background()).Info().Str("service", opts.ServiceName).Float64("sample_ratio", opts.SampleRatio)
	if opts.Endpoint == "" {
		ev.Msg("Tracing initialized without exporter")
	} else {
		ev.Str("endpoint", opts.Endpoint).Msg("Tracing initialized, exporting to Jaeger")
	}
	return tp, nil
}
