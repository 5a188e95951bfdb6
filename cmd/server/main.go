package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/fundcrm/internal/config"
	"github.com/blues/fundcrm/internal/database"
	"github.com/blues/fundcrm/internal/llm"
	"github.com/blues/fundcrm/internal/logger"
	"github.com/blues/fundcrm/internal/logic"
	"github.com/blues/fundcrm/internal/metrics"
	"github.com/blues/fundcrm/internal/rejection"
	"github.com/blues/fundcrm/internal/report"
	"github.com/blues/fundcrm/internal/router"
	"github.com/blues/fundcrm/internal/sms"
	"github.com/blues/fundcrm/internal/task"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 加载配置
	cfg := config.Load()
	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	metrics.Default().Register(prometheus.DefaultRegisterer)

	loc, err := report.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		logger.Fatal("Failed to load report timezone %q: %v", cfg.Report.Timezone, err)
	}

	// 短信凭证缺失时门控整体关闭，站内通知不受影响
	gate := sms.NewGate(db, sms.NewProvider(cfg.SMS), cfg.SMS.OrgName, cfg.SMS.Timeout())
	if !gate.Enabled() {
		logger.Warn("SMS credentials not configured, SMS delivery disabled")
	}
	notifier, err := logic.NewNotifier(db, gate, cfg.SMS.PoolSize)
	if err != nil {
		logger.Fatal("Failed to create notifier: %v", err)
	}
	defer notifier.Close()

	gen := llm.New(cfg.LLM)
	if gen == nil {
		logger.Warn("LLM API key not configured, reports and rejection emails use templates")
	}
	generator := report.NewGenerator(db, gen, loc)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, cfg, router.Services{
		Notifier: notifier,
		Reports:  generator,
		Drafter:  rejection.NewDrafter(cfg.SMS.OrgName, gen),
		Location: loc,
		Gatherer: prometheus.DefaultGatherer,
	})

	// 启动定时任务，托管平台自带 cron 时保持关闭
	if cfg.Report.ScheduleEnabled {
		tasks := task.Start(generator, cfg.Report)
		defer tasks.Stop()
	}

	// 启动服务器
	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r}
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
