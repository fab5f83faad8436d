package statement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vaultwrx/billing/internal/domain/billing"
	"go.uber.org/zap"
)

const (
	monthLabelLayout = "January 2006"
	timestampLayout  = "January 2, 2006 03:04 pm"
)

// Orchestrator runs the statement pipelines: admin (platform-wide),
// retailer, and customer, plus the scheduled full fan-out. Pipelines share
// the formatter, renderer, and reconciler; each run gets a fresh run
// identifier scoping its detailed-invoice staging rows.
type Orchestrator struct {
	orders       billing.OrderRepository
	customers    billing.CustomerRepository
	retailers    billing.RetailerRepository
	stages       billing.StageRepository
	formatter    *Formatter
	renderer     *DocumentRenderer
	reconciler   *FailureReconciler
	platformName string
	timezone     *time.Location
	workers      int
	logger       *zap.Logger
}

// NewOrchestrator creates an Orchestrator. workers bounds the concurrent
// tasks of a full run; values below 1 are raised to 1. timezone is used
// for document timestamps; nil falls back to UTC.
func NewOrchestrator(
	orders billing.OrderRepository,
	customers billing.CustomerRepository,
	retailers billing.RetailerRepository,
	stages billing.StageRepository,
	formatter *Formatter,
	renderer *DocumentRenderer,
	platformName string,
	timezone *time.Location,
	workers int,
	logger *zap.Logger,
) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	if timezone == nil {
		timezone = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		orders:       orders,
		customers:    customers,
		retailers:    retailers,
		stages:       stages,
		formatter:    formatter,
		renderer:     renderer,
		platformName: platformName,
		timezone:     timezone,
		workers:      workers,
		logger:       logger,
	}
}

// SetReconciler wires the failure reconciler after construction, breaking
// the cycle between the reconciler's regeneration hook and the
// orchestrator that provides it.
func (o *Orchestrator) SetReconciler(r *FailureReconciler) {
	o.reconciler = r
}

func (o *Orchestrator) now() string {
	return time.Now().In(o.timezone).Format(timestampLayout)
}

func (o *Orchestrator) reconcile(ctx context.Context) error {
	if o.reconciler == nil {
		return nil
	}
	return o.reconciler.Reconcile(ctx)
}

// Generate validates the request, reconciles prior failures, then runs
// each requested pipeline. Every pipeline's outcome is reported; one
// pipeline failing does not stop the others.
func (o *Orchestrator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New()
	result := &GenerateResult{RunID: runID}
	o.logger.Info("statement run starting",
		zap.String("run_id", runID.String()),
		zap.String("month", req.Date.Format(monthLabelLayout)))

	if err := o.reconcile(ctx); err != nil {
		o.logger.Warn("reconciliation finished with errors", zap.Error(err))
		result.Outcomes = append(result.Outcomes, RoleOutcome{Role: "reconcile", Error: err})
	}

	if req.Admin {
		err := o.generateAdminStatements(ctx, runID, req.Date)
		result.Outcomes = append(result.Outcomes, RoleOutcome{Role: "admin", Error: err})
	}
	if req.RetailerID != nil {
		err := o.generateRetailerStatements(ctx, runID, *req.RetailerID, req.Date)
		result.Outcomes = append(result.Outcomes, RoleOutcome{Role: "retailer", Error: err})
	}
	if req.CustomerID != nil {
		err := o.generateCustomerStatement(ctx, runID, *req.CustomerID, req.Date)
		result.Outcomes = append(result.Outcomes, RoleOutcome{Role: "customer", Error: err})
	}

	o.logger.Info("statement run finished",
		zap.String("run_id", runID.String()),
		zap.Int("failed", len(result.Failed())))
	return result, nil
}

// GenerateAll reconciles once, then fans out the admin pipeline plus one
// task per active retailer and per active customer through a bounded
// worker pool. Tasks settle independently; no failure cancels siblings.
func (o *Orchestrator) GenerateAll(ctx context.Context, date time.Time) (*BulkResult, error) {
	if err := o.reconcile(ctx); err != nil {
		o.logger.Warn("reconciliation finished with errors", zap.Error(err))
	}

	retailers, err := o.retailers.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list retailers: %w", err)
	}
	customers, err := o.customers.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	type task struct {
		name string
		run  func(context.Context) error
	}
	tasks := make([]task, 0, 1+len(retailers)+len(customers))
	tasks = append(tasks, task{name: "admin", run: func(ctx context.Context) error {
		return o.generateAdminStatements(ctx, uuid.New(), date)
	}})
	for _, r := range retailers {
		r := r
		tasks = append(tasks, task{name: "retailer:" + r.Name, run: func(ctx context.Context) error {
			return o.generateRetailerStatements(ctx, uuid.New(), r.ID, date)
		}})
	}
	for _, c := range customers {
		c := c
		tasks = append(tasks, task{name: "customer:" + c.Name, run: func(ctx context.Context) error {
			return o.generateCustomerStatement(ctx, uuid.New(), c.ID, date)
		}})
	}

	sem := make(chan struct{}, o.workers)
	results := make([]TaskResult, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = TaskResult{Task: t.name, Error: t.run(ctx)}
		}(i, t)
	}
	wg.Wait()

	bulk := &BulkResult{Tasks: results}
	for _, r := range results {
		if r.Error != nil {
			bulk.Failed++
			o.logger.Error("task failed", zap.String("task", r.Task), zap.Error(r.Error))
		} else {
			bulk.Succeeded++
		}
	}
	o.logger.Info("full run finished",
		zap.Int("succeeded", bulk.Succeeded),
		zap.Int("failed", bulk.Failed))
	return bulk, nil
}

// generateAdminStatements runs the platform-wide pipeline: per-retailer
// per-day detailed invoices (staged for the run), then the consolidated
// per-retailer admin invoices, then the platform rollup statement. Staging
// rows are purged when the run settles.
func (o *Orchestrator) generateAdminStatements(ctx context.Context, runID uuid.UUID, date time.Time) error {
	defer func() {
		if err := o.stages.PurgeRun(context.WithoutCancel(ctx), runID); err != nil {
			o.logger.Warn("failed to purge staging rows",
				zap.String("run_id", runID.String()), zap.Error(err))
		}
	}()

	month := date.Format(monthLabelLayout)
	timestamp := o.now()

	// Deleted retailers keep their monthly orders in the platform books,
	// so the admin pipeline covers every retailer on record.
	retailers, err := o.retailers.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list retailers: %w", err)
	}
	customers, err := o.customers.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list customers: %w", err)
	}

	ordersByRetailer := make(map[uuid.UUID][]billing.Order, len(retailers))
	var detailed []billing.StatementData
	for _, r := range retailers {
		orders, err := o.orders.FindForRetailerMonth(ctx, r.ID, date.Year(), int(date.Month()))
		if err != nil {
			return fmt.Errorf("failed to load orders for %s: %w", r.Name, err)
		}
		if len(orders) == 0 {
			continue
		}
		ordersByRetailer[r.ID] = orders
		for _, dayOrders := range GroupOrdersByDay(orders) {
			detailed = append(detailed, billing.StatementData{
				Name:       r.Name,
				Month:      dayOrders[0].DateOfService.Label(),
				RetailerID: &r.ID,
				Data:       o.formatter.FormatAdminDetailedOrders(dayOrders, customers),
				Timestamp:  timestamp,
			})
		}
	}
	if err := o.renderer.Publish(ctx, runID, detailed, billing.ActorAdmin, billing.KindDetailedInvoice); err != nil {
		return fmt.Errorf("detailed invoices: %w", err)
	}

	var consolidated []billing.StatementData
	for _, r := range retailers {
		orders, ok := ordersByRetailer[r.ID]
		if !ok {
			continue
		}
		totals, err := o.formatter.FormatAdminOrdersForReport(ctx, orders, runID, r.ID)
		if err != nil {
			return fmt.Errorf("admin report for %s: %w", r.Name, err)
		}
		consolidated = append(consolidated, billing.StatementData{
			Name:       r.Name,
			Month:      month,
			RetailerID: &r.ID,
			Data:       totals,
			Timestamp:  timestamp,
		})
	}
	SortStatementsForInvoices(consolidated)
	if err := o.renderer.Publish(ctx, runID, consolidated, billing.ActorAdmin, billing.KindInvoice); err != nil {
		return fmt.Errorf("admin invoices: %w", err)
	}

	platform := []billing.StatementData{{
		Name:      o.platformName,
		Month:     month,
		Data:      FormatRetailersForReport(consolidated),
		Timestamp: timestamp,
	}}
	if err := o.renderer.Publish(ctx, runID, platform, billing.ActorAdmin, billing.KindStatement); err != nil {
		return fmt.Errorf("platform statement: %w", err)
	}
	return nil
}

// generateRetailerStatements runs one retailer's pipeline: invoices for
// each of its customers, then the retailer statement rolling those
// invoices up.
func (o *Orchestrator) generateRetailerStatements(ctx context.Context, runID, retailerID uuid.UUID, date time.Time) error {
	retailer, err := o.retailers.FindByID(ctx, retailerID)
	if err != nil {
		return fmt.Errorf("failed to load retailer: %w", err)
	}
	customers, err := o.customers.FindActiveByRetailer(ctx, retailerID)
	if err != nil {
		return fmt.Errorf("failed to list customers for %s: %w", retailer.Name, err)
	}

	month := date.Format(monthLabelLayout)
	timestamp := o.now()

	var invoices []billing.StatementData
	for _, c := range customers {
		orders, err := o.orders.FindForCustomerMonth(ctx, c.ID, date.Year(), int(date.Month()))
		if err != nil {
			return fmt.Errorf("failed to load orders for %s: %w", c.Name, err)
		}
		invoices = append(invoices,
			o.formatter.CustomerInvoiceData(&c, retailer, orders, month, timestamp, true)...)
	}
	if err := o.renderer.Publish(ctx, runID, invoices, billing.ActorRetailer, billing.KindInvoice); err != nil {
		return fmt.Errorf("customer invoices: %w", err)
	}

	stmt := []billing.StatementData{{
		Name:       retailer.Name,
		Month:      month,
		RetailerID: &retailer.ID,
		Retailer:   retailer,
		Data:       FormatCustomersForReport(invoices),
		Timestamp:  timestamp,
	}}
	if err := o.renderer.Publish(ctx, runID, stmt, billing.ActorRetailer, billing.KindStatement); err != nil {
		return fmt.Errorf("retailer statement: %w", err)
	}
	return nil
}

// generateCustomerStatement runs one customer's monthly statement.
func (o *Orchestrator) generateCustomerStatement(ctx context.Context, runID, customerID uuid.UUID, date time.Time) error {
	customer, err := o.customers.FindByID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to load customer: %w", err)
	}
	retailer, err := o.retailers.FindByID(ctx, customer.RetailerID)
	if err != nil {
		return fmt.Errorf("failed to load retailer for %s: %w", customer.Name, err)
	}
	orders, err := o.orders.FindForCustomerMonth(ctx, customerID, date.Year(), int(date.Month()))
	if err != nil {
		return fmt.Errorf("failed to load orders for %s: %w", customer.Name, err)
	}

	payloads := o.formatter.CustomerInvoiceData(
		customer, retailer, orders, date.Format(monthLabelLayout), o.now(), true)
	if err := o.renderer.Publish(ctx, runID, payloads, billing.ActorCustomer, billing.KindStatement); err != nil {
		return fmt.Errorf("customer statement: %w", err)
	}
	return nil
}

// GenerateCustomerInvoices regenerates one customer's invoices for a month
// identified by its label, e.g. "January 2026". This is the reconciler's
// recovery path for zero-byte customer documents.
func (o *Orchestrator) GenerateCustomerInvoices(ctx context.Context, name, dateLabel string) error {
	date, err := time.ParseInLocation(monthLabelLayout, dateLabel, o.timezone)
	if err != nil {
		return fmt.Errorf("unrecognized date label %q: %w", dateLabel, err)
	}
	customer, err := o.customers.FindActiveByName(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to find customer %s: %w", name, err)
	}
	retailer, err := o.retailers.FindByID(ctx, customer.RetailerID)
	if err != nil {
		return fmt.Errorf("failed to load retailer for %s: %w", name, err)
	}
	orders, err := o.orders.FindForCustomerMonth(ctx, customer.ID, date.Year(), int(date.Month()))
	if err != nil {
		return fmt.Errorf("failed to load orders for %s: %w", name, err)
	}

	payloads := o.formatter.CustomerInvoiceData(customer, retailer, orders, dateLabel, o.now(), false)
	SortStatementsForInvoices(payloads)
	return o.renderer.Publish(ctx, uuid.New(), payloads, billing.ActorRetailer, billing.KindInvoice)
}
