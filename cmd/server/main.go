// 班次分配服务
// 主程序入口

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paiban/allocator/internal/config"
	"github.com/paiban/allocator/internal/handler"
	"github.com/paiban/allocator/internal/metrics"
	"github.com/paiban/allocator/internal/middleware"
	"github.com/paiban/allocator/internal/planner"
	"github.com/paiban/allocator/internal/security"
	"github.com/paiban/allocator/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "YAML 配置文件, 为空时只读取环境变量")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
		Output: "stderr",
	})

	if err := run(cfg); err != nil {
		logger.Fatal().Err(err).Msg("服务退出")
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	profiles, err := planner.LoadProfiles(cfg.Allocator)
	if err != nil {
		return err
	}

	store, db, closer, err := planner.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	reg := metrics.Default()
	svc := planner.NewService(profiles, store, reg, planner.OptionsFromConfig(cfg.Allocator))

	var health handler.HealthChecker
	if db != nil {
		health = db
	}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = reg.Handler()
	}

	h := handler.New(svc, handler.BuildInfo{
		Service:   cfg.App.Name,
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}, health, metricsHandler)
	h.SetMetricsPath(cfg.Metrics.Path)

	mux := http.NewServeMux()
	h.Register(mux)

	limiter := security.NewRateLimiter(cfg.API.RateLimit, time.Minute)
	defer limiter.Stop()
	keys := security.NewKeySet(cfg.API.APIKeys)
	if cfg.IsProduction() && !keys.Enabled() {
		logger.Warn().Msg("生产环境未配置 API 密钥, 接口不做鉴权")
	}

	// 中间件执行顺序：requestID -> rateLimit -> cors -> apiKey -> logging -> handler
	root := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Recovery,
		middleware.SecurityHeaders,
		middleware.RateLimit(limiter),
		middleware.CORS(cfg.API.CORS),
		middleware.APIKey(keys, []string{"/health", "/version", cfg.Metrics.Path}),
		middleware.Logging(reg),
	)

	writeTimeout := 60 * time.Second
	if cfg.Allocator.Timeout+10*time.Second > writeTimeout {
		writeTimeout = cfg.Allocator.Timeout + 10*time.Second
	}
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("storage", cfg.Storage.Backend).
			Strs("profiles", profiles.Names()).
			Bool("api_keys", keys.Enabled()).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("服务器启动失败: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info().Msg("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务器关闭失败: %w", err)
	}

	logger.Info().Msg("服务器已关闭")
	return nil
}
