// cmd/figures-service/main.go
package main

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"

	"figurestore/internal/pkg/bootstrap"
	"figurestore/internal/pkg/logger"
	"figurestore/internal/pkg/metrics"
	"figurestore/internal/pkg/mq"
	"figurestore/internal/pkg/redis"
	"figurestore/internal/service/order/application"
	"figurestore/internal/service/order/domain"
	"figurestore/internal/service/order/domain/port"
	"figurestore/internal/service/order/infrastructure"
	"figurestore/internal/service/order/infrastructure/adapter"
	"figurestore/internal/service/order/interfaces"
)

// stockBackend 是库存适配器在组装根里需要的全部能力
type stockBackend interface {
	port.StockStore
	port.StockInspector
	SetStock(ctx context.Context, typeKey string, quantity int64) error
}

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	cfg, err := bootstrap.LoadConfig(getConfigPath())
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.App.Name, cfg.App.LogLevel)
	ctx := context.Background()

	var closers []func() error

	// 1. 库存存储：配置了 Redis 就用 Redis，否则退回进程内实现
	var stock stockBackend
	if cfg.Infra.Redis.Addrs != "" {
		redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs)
		if err != nil {
			logger.Ctx(ctx).Fatal().Err(err).Msg("failed to initialize redis client")
		}
		closers = append(closers, redisClient.Close)
		if stock, err = adapter.NewStockRedisAdapter(redisClient); err != nil {
			logger.Ctx(ctx).Fatal().Err(err).Msg("failed to initialize redis stock adapter")
		}
	} else {
		logger.Ctx(ctx).Warn().Msg("redis not configured, using in-memory stock")
		stock = adapter.NewStockMemoryAdapter(nil)
	}

	// (可选, 用于本地运行) 准备初始库存
	for typeKey, qty := range cfg.App.StockSeed {
		if err := stock.SetStock(ctx, typeKey, qty); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("type", typeKey).Msg("could not seed stock")
		}
	}

	// 2. 订单仓储
	var repo domain.OrderRepository
	if cfg.Infra.MySQL.Addr != "" {
		db, err := infrastructure.OpenMySQL(cfg.Infra.MySQL)
		if err != nil {
			logger.Ctx(ctx).Fatal().Err(err).Msg("failed to open mysql")
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, sqlDB.Close)
		}
		repo = infrastructure.NewGormOrderRepository(db)
	} else {
		logger.Ctx(ctx).Warn().Msg("mysql not configured, using in-memory order repository")
		repo = infrastructure.NewMemoryOrderRepository()
	}

	// 3. 补偿失败告警
	var alerts port.AlertPublisher
	if brokers := cfg.Infra.Kafka.KafkaBrokers(); len(brokers) > 0 {
		alertWriter := mq.NewKafkaWriter(brokers, cfg.Infra.Kafka.AlertTopic)
		closers = append(closers, alertWriter.Close)
		alerts = adapter.NewAlertKafkaAdapter(alertWriter)
	}

	// 4. 组装协调器和接口层
	coordinator := application.NewCoordinator(stock, repo, alerts, metrics.New(nil), otel.Tracer(cfg.App.Name), application.Options{
		Parallel:            cfg.App.ReservationMode == bootstrap.ReservationParallel,
		ProcessingTimeout:   cfg.App.ProcessingTimeout,
		CompensationTimeout: cfg.App.CompensationTimeout,
	})
	handler := interfaces.NewOrderHandler(coordinator, stock)

	bootstrap.StartService(bootstrap.AppInfo{
		Config: cfg,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			for i := len(closers) - 1; i >= 0; i-- {
				if err := closers[i](); err != nil {
					logger.Ctx(ctx).Error().Err(err).Msg("error releasing resource")
				}
			}
		},
	})
}

func getConfigPath() string {
	if p, ok := os.LookupEnv("CONFIG_PATH"); ok {
		return p
	}
	return "configs/config.yaml"
}
