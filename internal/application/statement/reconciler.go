package statement

import (
	"context"
	"errors"
	"fmt"

	"github.com/vaultwrx/billing/internal/domain/billing"
	"go.uber.org/zap"
)

// RegenerateFunc re-runs the customer invoice pipeline for one owner name
// and date label. Injected so the reconciler does not depend on the
// orchestrator directly.
type RegenerateFunc func(ctx context.Context, ownerName, dateLabel string) error

// artifactPrefixes are the storage prefixes the reconciler sweeps.
// Template HTML under templates/ is deliberately outside the sweep.
var artifactPrefixes = []string{
	string(billing.KindStatement) + "/",
	string(billing.KindInvoice) + "/",
}

// FailureReconciler sweeps stored documents for zero-byte uploads left by
// interrupted runs. Every empty object is deleted; objects tagged as
// customer-owned are additionally regenerated. Retailer and platform
// documents are delete-only: their next scheduled run rebuilds them.
type FailureReconciler struct {
	blobs      BlobStorage
	regenerate RegenerateFunc
	logger     *zap.Logger
}

// NewFailureReconciler creates a FailureReconciler.
func NewFailureReconciler(blobs BlobStorage, regenerate RegenerateFunc, logger *zap.Logger) *FailureReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FailureReconciler{blobs: blobs, regenerate: regenerate, logger: logger}
}

// Reconcile runs one sweep. A failure on one object does not stop the
// sweep; the collected errors are returned together.
func (r *FailureReconciler) Reconcile(ctx context.Context) error {
	var errs []error
	for _, prefix := range artifactPrefixes {
		objects, err := r.blobs.List(ctx, prefix)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to list %s: %w", prefix, err))
			continue
		}
		for _, obj := range objects {
			if obj.Size != 0 {
				continue
			}
			r.logger.Warn("found zero-byte document",
				zap.String("key", obj.Key),
				zap.String("owner_type", obj.Metadata[MetaOwnerType]))

			if err := r.blobs.Delete(ctx, obj.Key); err != nil {
				errs = append(errs, fmt.Errorf("failed to delete %s: %w", obj.Key, err))
				continue
			}

			if obj.Metadata[MetaOwnerType] != string(billing.OwnerCustomer) {
				continue
			}
			name := obj.Metadata[MetaOwnerName]
			dateLabel := obj.Metadata[MetaDateLabel]
			if name == "" || dateLabel == "" {
				r.logger.Warn("customer document missing owner metadata; cannot regenerate",
					zap.String("key", obj.Key))
				continue
			}
			if err := r.regenerate(ctx, name, dateLabel); err != nil {
				errs = append(errs, fmt.Errorf("failed to regenerate for %s (%s): %w", name, dateLabel, err))
			}
		}
	}
	return errors.Join(errs...)
}
