// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"figurestore/internal/pkg/logger"
	"figurestore/internal/pkg/nacos"
	"figurestore/internal/pkg/tracing"
	"figurestore/internal/pkg/utils"
)

type AppCtx struct {
	Mux    *http.ServeMux
	Config *Config
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	Config           *Config
	RegisterHandlers func(appCtx AppCtx)       // 注册服务自己的 HTTP 路由
	OnShutdown       func(ctx context.Context) // 在 HTTP 服务器关闭后释放服务自己的资源
}

// StartService 封装了所有微服务的通用启动和优雅关停逻辑。
func StartService(info AppInfo) {
	cfg := info.Config
	ctx := context.Background()
	serviceName := cfg.App.Name

	// 1. Tracer
	tp, err := tracing.InitTracerProvider(tracing.Options{
		ServiceName: serviceName,
		Endpoint:    cfg.Infra.Jaeger.Endpoint,
		SampleRatio: cfg.Infra.Jaeger.SampleRatio,
	})
	if err != nil {
		logger.Ctx(ctx).Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	// 2. 可选的 Nacos 注册
	var (
		namingClient *nacos.Client
		ip           string
	)
	if cfg.Infra.Nacos.Enabled {
		namingClient, err = nacos.NewNacosClient(cfg.Infra.Nacos.Addrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			logger.Ctx(ctx).Fatal().Err(err).Msg("failed to initialize nacos client")
		}
		if ip, err = utils.GetOutboundIP(); err != nil {
			logger.Ctx(ctx).Fatal().Err(err).Msg("failed to get outbound IP address")
		}
		if err = namingClient.RegisterServiceInstance(serviceName, ip, cfg.App.Port); err != nil {
			logger.Ctx(ctx).Fatal().Err(err).Msg("failed to register service with nacos")
		}
	}

	// 3. 创建并启动 HTTP Server
	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Config: cfg})
	}
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.App.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Ctx(ctx).Info().Msgf("%s listening on :%d", serviceName, cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Ctx(ctx).Fatal().Err(err).Msgf("could not listen on %s", server.Addr)
		}
	}()

	// 4. 优雅关停
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Ctx(ctx).Info().Msgf("Shutting down service %s...", serviceName)

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// 按启动的相反顺序清理
	if namingClient != nil {
		if err := namingClient.DeregisterServiceInstance(serviceName, ip, cfg.App.Port); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("Error deregistering from Nacos")
		}
	}

	// 先停止接收请求，让进行中的订单走完补偿
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Error shutting down http server")
	}

	if info.OnShutdown != nil {
		info.OnShutdown(shutdownCtx)
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Error shutting down tracer provider")
	}

	logger.Ctx(ctx).Info().Msgf("Service %s gracefully shut down.", serviceName)
}
