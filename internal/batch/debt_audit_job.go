package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"credit-approval/internal/domain/customer"
	"credit-approval/internal/domain/loan"
	"credit-approval/internal/infrastructure/monitoring"

	"github.com/shopspring/decimal"
)

// DebtAuditJob reconciles each customer's stored current_debt against the
// sum of their loan principals. Origination keeps the two in sync by
// construction, but bulk-ingested data can drift.
type DebtAuditJob struct {
	loanRepo        loan.Repository
	customerService customer.CustomerService
	logger          *slog.Logger
}

func NewDebtAuditJob(loanRepo loan.Repository, customerSvc customer.CustomerService, logger *slog.Logger) *DebtAuditJob {
	if loanRepo == nil || customerSvc == nil || logger == nil {
		panic("DebtAuditJob dependencies cannot be nil")
	}
	return &DebtAuditJob{
		loanRepo:        loanRepo,
		customerService: customerSvc,
		logger:          logger.With("job", "DebtAudit"),
	}
}

func (j *DebtAuditJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting customer debt audit job.")

	customers, err := j.customerService.ListCustomers(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list customers, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to list customers: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched customers for audit.", slog.Int("count", len(customers)))

	if len(customers) == 0 {
		j.logger.InfoContext(ctx, "No customers found to audit.")
		return nil
	}

	var wg sync.WaitGroup
	var auditedCount, driftCount, errorCount atomic.Int32

	for _, cust := range customers {
		wg.Add(1)
		go func(c *customer.Customer) {
			defer wg.Done()

			logCtx := j.logger.With(slog.Int64("customerID", c.CustomerID))

			loans, listErr := j.loanRepo.ListByCustomer(ctx, c.CustomerID)
			if listErr != nil {
				logCtx.ErrorContext(ctx, "Failed to list loans for audit", slog.Any("error", listErr))
				errorCount.Add(1)
				return
			}

			principalSum := decimal.Zero
			for i := range loans {
				principalSum = principalSum.Add(loans[i].Amount)
			}

			if !principalSum.Equal(c.CurrentDebt) {
				logCtx.WarnContext(ctx, "Customer debt drift detected.",
					slog.String("stored_debt", c.CurrentDebt.String()),
					slog.String("principal_sum", principalSum.String()))
				monitoring.RecordDebtDrift()
				driftCount.Add(1)
			}
			auditedCount.Add(1)
		}(cust)
	}

	wg.Wait()
	duration := time.Since(startTime)
	summaryLog := j.logger.With(
		slog.Duration("duration", duration),
		slog.Int("customers_total", len(customers)),
		slog.Int("customers_audited", int(auditedCount.Load())),
		slog.Int("drift_detected", int(driftCount.Load())),
		slog.Int("errors_encountered", int(errorCount.Load())),
	)
	if errorCount.Load() > 0 {
		summaryLog.WarnContext(ctx, "Customer debt audit job finished with errors.")
		return fmt.Errorf("job completed with %d errors", errorCount.Load())
	}

	summaryLog.InfoContext(ctx, "Customer debt audit job finished successfully.")
	return nil
}
