package components

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/config"
	"github.com/lystun/payflo-sub003/internal/domain/batch"
	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/chargeback"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
	"github.com/lystun/payflo-sub003/internal/provider"
	"github.com/lystun/payflo-sub003/internal/settlement/service"
	"github.com/lystun/payflo-sub003/internal/walletledger"
)

// CreateServices wires the settlement engine: the reporting service behind
// a worker pool for the collection stream, and the run service that the run
// queue drives one batch at a time.
func CreateServices(
	batchRepo batch.Repository,
	transactionRepo transaction.Repository,
	businessRepo business.Repository,
	chargebackRepo chargeback.Repository,
	walletLedger *walletledger.Service,
	payouts provider.PayoutProvider,
	notifier service.Notifier,
	logger *slog.Logger,
	cfg *config.Config,
) (service.ReportingService, service.RunService) {
	grouping := NewGroupingEngine(transactionRepo, businessRepo, logger)
	chargebacks := NewChargebackAggregator(chargebackRepo, logger)
	calculator := NewLumpCalculator(businessRepo, chargebacks, logger)
	dispatcher := NewPayoutDispatcher(
		transactionRepo,
		walletLedger,
		payouts,
		notifier,
		cfg.Settlement.Currency,
		logger,
	)

	platformID, err := uuid.Parse(cfg.Settlement.PlatformBusinessID)
	if err != nil {
		logger.Error("Invalid platform business id, revenue accrual disabled", "value", cfg.Settlement.PlatformBusinessID)
		platformID = uuid.Nil
	}

	reporting := service.NewReportingService(batchRepo, transactionRepo, grouping, walletLedger, platformID, logger)
	runService := service.NewRunService(batchRepo, grouping, calculator, dispatcher, logger)

	pooledReporting, err := service.NewWorkerPoolReportingService(
		reporting,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return reporting, runService
	}

	logger.Info("Created worker pool reporting service", "pool_size", cfg.WorkerPool.Size)
	return pooledReporting, runService
}
