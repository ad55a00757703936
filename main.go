package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apporder "github.com/zakazhi/orderpay/internal/application/order"
	apppayment "github.com/zakazhi/orderpay/internal/application/payment"
	"github.com/zakazhi/orderpay/internal/config"
	"github.com/zakazhi/orderpay/internal/gateway/sbp"
	httptransport "github.com/zakazhi/orderpay/internal/infrastructure/http"
	"github.com/zakazhi/orderpay/internal/infrastructure/id"
	"github.com/zakazhi/orderpay/internal/infrastructure/memory"
	orderworker "github.com/zakazhi/orderpay/internal/infrastructure/order/worker"
	"github.com/zakazhi/orderpay/internal/infrastructure/outbox"
	"github.com/zakazhi/orderpay/internal/infrastructure/webhook"
	"github.com/zakazhi/orderpay/internal/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	paymentMetrics := apppayment.NewMetrics()
	httpMetrics := httptransport.NewMetrics()
	prometheus.MustRegister(paymentMetrics.Collectors()...)
	prometheus.MustRegister(httpMetrics.Collectors()...)

	orderRepo := memory.NewOrderRepository()
	menuRepo := memory.NewMenuRepository(memory.DefaultMenu())
	idGenerator := id.NewUUIDGenerator()

	// In-memory event bus connects the payment workflow to order settlement
	// and the automation webhook.
	bus := outbox.NewBus(baseLogger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	gateway := sbp.NewClient(sbp.Config{
		BaseURL:  cfg.SBPBaseURL,
		UserName: cfg.SBPUserName,
		Password: cfg.SBPPassword,
		Language: cfg.SBPLanguage,
		Timeout:  cfg.SBPTimeout,
	}, baseLogger)

	orderService := apporder.NewService(orderRepo, menuRepo, idGenerator, bus)
	paymentManager := apppayment.NewManager(gateway, bus, apppayment.Config{
		CurrencyCode: cfg.CurrencyCode,
		ReturnURL:    cfg.ReturnURL,
		PollInterval: cfg.PollInterval,
		PollTimeout:  cfg.PollTimeout,
	}, paymentMetrics, baseLogger)
	defer paymentManager.Shutdown()

	settlementWorker := orderworker.New(orderRepo, bus, baseLogger)
	settlementWorker.Start()

	notifier := webhook.NewNotifier(cfg.OrderWebhookURL, cfg.RestaurantID, baseLogger)
	notifier.Start(bus)

	handler := httptransport.NewHandler(orderService, paymentManager, menuRepo)
	router := httptransport.NewRouter(handler, baseLogger, httpMetrics)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		baseLogger.Info("http_server_stopped")
	}
}
