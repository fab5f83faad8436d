package statement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vaultwrx/billing/internal/domain/shared"
)

// GenerateRequest selects which statement pipelines to run for a billing
// month. Admin runs the platform-wide pipeline across every retailer;
// RetailerID runs one retailer's customer invoices and statement;
// CustomerID runs one customer's statement. Roles combine freely.
type GenerateRequest struct {
	Date       time.Time
	Admin      bool
	RetailerID *uuid.UUID
	CustomerID *uuid.UUID
}

// Validate rejects requests before any side effect happens.
func (r *GenerateRequest) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("%w: date is required", shared.ErrInvalidInput)
	}
	if !r.Admin && r.RetailerID == nil && r.CustomerID == nil {
		return fmt.Errorf("%w: at least one of admin, retailer_id, customer_id must be set", shared.ErrInvalidInput)
	}
	return nil
}

// RoleOutcome is the settled result of one pipeline within a run.
type RoleOutcome struct {
	Role  string
	Error error
}

// GenerateResult reports every requested pipeline's outcome for a run.
// A failed pipeline never hides a succeeded one.
type GenerateResult struct {
	RunID    uuid.UUID
	Outcomes []RoleOutcome
}

// Failed returns the outcomes that carry an error.
func (r *GenerateResult) Failed() []RoleOutcome {
	var failed []RoleOutcome
	for _, o := range r.Outcomes {
		if o.Error != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// TaskResult is the settled result of one fan-out task in a bulk run.
type TaskResult struct {
	Task  string
	Error error
}

// BulkResult aggregates every task of a scheduled full run.
type BulkResult struct {
	Succeeded int
	Failed    int
	Tasks     []TaskResult
}
