package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FONAR-bit/fonar-project/internal/application/usecase"
	"github.com/FONAR-bit/fonar-project/internal/domain/service"
	"github.com/FONAR-bit/fonar-project/internal/infrastructure/clock"
	"github.com/FONAR-bit/fonar-project/internal/infrastructure/config"
	"github.com/FONAR-bit/fonar-project/internal/infrastructure/messaging"
	pgRepo "github.com/FONAR-bit/fonar-project/internal/infrastructure/persistence/postgres"
	"github.com/FONAR-bit/fonar-project/internal/presentation/rest"
	"github.com/FONAR-bit/fonar-project/pkg/kafka"
	"github.com/FONAR-bit/fonar-project/pkg/observability"
	"github.com/FONAR-bit/fonar-project/pkg/postgres"
)

const eventsTopic = "fonar.fund.events"

func main() {
	cfg := config.Load()
	cfg.Validate()

	logger := observability.InitLogger(cfg.Log)
	logger.Info("starting fund service", "http_port", cfg.HTTPPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Database -----------------------------------------------------------
	if err := postgres.RunMigrations(cfg.DB.DSN(), cfg.MigrationsPath); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// --- Infrastructure adapters -------------------------------------------
	loanRepo := pgRepo.NewLoanRepo(pool)
	paymentRepo := pgRepo.NewPaymentRepo(pool)
	contributionRepo := pgRepo.NewContributionRepo(pool)
	rateRepo := pgRepo.NewRateRepo(pool)
	requestRepo := pgRepo.NewLoanRequestRepo(pool)
	balanceRepo := pgRepo.NewFundBalanceRepo(pool)
	memberRepo := pgRepo.NewMemberRepo(pool)

	producer := kafka.NewProducer(cfg.Kafka)
	publisher := messaging.NewKafkaEventPublisher(producer, eventsTopic, logger)
	defer publisher.Close()

	engine := service.NewAllocationEngine()
	sysClock := clock.System{}

	// --- Use cases ----------------------------------------------------------
	createLoanUC := usecase.NewCreateLoanUseCase(loanRepo, rateRepo, memberRepo, publisher, sysClock)
	updateLoanUC := usecase.NewUpdateLoanUseCase(loanRepo, publisher, sysClock)
	scheduleUC := usecase.NewInstallmentScheduleUseCase(loanRepo)
	submitRequestUC := usecase.NewSubmitLoanRequestUseCase(requestRepo, rateRepo, memberRepo, publisher, sysClock)
	decideRequestUC := usecase.NewDecideLoanRequestUseCase(requestRepo, loanRepo, publisher, sysClock)
	registerPaymentUC := usecase.NewRegisterPaymentUseCase(paymentRepo, publisher, sysClock)
	reconcileUC := usecase.NewReconcilePaymentUseCase(paymentRepo, loanRepo, contributionRepo, engine, publisher, sysClock)
	deleteLineUC := usecase.NewDeleteAllocationLineUseCase(paymentRepo, loanRepo, engine, publisher, sysClock)
	lookupRateUC := usecase.NewLookupRateUseCase(rateRepo)
	distributionUC := usecase.NewDistributionReportUseCase(contributionRepo, paymentRepo, loanRepo, balanceRepo, memberRepo, sysClock)
	memberSummaryUC := usecase.NewMemberSummaryUseCase(memberRepo, contributionRepo, loanRepo)
	fundBalanceUC := usecase.NewUpsertFundBalanceUseCase(balanceRepo, sysClock)
	recalcUC := usecase.NewRecalculateAggregatesUseCase(loanRepo, paymentRepo, publisher, sysClock)

	// --- HTTP server --------------------------------------------------------
	_, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	apiHandler := rest.NewAPIHandler(
		createLoanUC, updateLoanUC, scheduleUC, submitRequestUC, decideRequestUC,
		registerPaymentUC, reconcileUC, deleteLineUC, lookupRateUC, distributionUC,
		memberSummaryUC, fundBalanceUC, recalcUC, logger,
	)

	mux := http.NewServeMux()
	apiHandler.RegisterRoutes(mux)
	rest.NewHealthHandler(pool, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metricsHandler)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// --- Graceful shutdown --------------------------------------------------
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("fund service stopped")
}
