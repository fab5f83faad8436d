package statement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vaultwrx/billing/internal/domain/billing"
	"go.uber.org/zap"
)

const pdfContentType = "application/pdf"

// Metadata keys attached to every stored document.
const (
	MetaOwnerName = "owner-name"
	MetaOwnerType = "owner-type"
	MetaDateLabel = "date-label"
)

// ArtifactPath derives the storage key for a rendered document. Detailed
// invoices live under invoices/detailed/ and carry no extension; location
// sub-statements use a colon-separated name and likewise no extension;
// everything else gets the plain ".pdf" form under its kind prefix.
func ArtifactPath(data *billing.StatementData, kind billing.ArtifactKind) string {
	if kind == billing.KindDetailedInvoice {
		return fmt.Sprintf("invoices/detailed/%s - %s", data.Name, data.Month)
	}
	if data.Location != "" {
		return fmt.Sprintf("%s/%s: %s - %s", kind, data.Name, data.Location, data.Month)
	}
	return fmt.Sprintf("%s/%s - %s.pdf", kind, data.Name, data.Month)
}

// OwnerFor resolves the owning entity of a document. A payload bound to a
// customer is customer-owned regardless of which pipeline produced it;
// retailer pipelines own their own rollups; everything else belongs to the
// platform.
func OwnerFor(data *billing.StatementData, actor billing.ActorType) (billing.OwnerType, *uuid.UUID) {
	if data.CustomerID != nil {
		return billing.OwnerCustomer, data.CustomerID
	}
	if actor == billing.ActorRetailer && data.RetailerID != nil {
		return billing.OwnerRetailer, data.RetailerID
	}
	return billing.OwnerPlatform, nil
}

// PersistenceCoordinator stores rendered PDFs and records where they went:
// object upload, metadata tagging, then either a run-scoped stage row (for
// per-day detailed invoices feeding the admin report) or a durable
// statement record on the owning entity.
type PersistenceCoordinator struct {
	blobs      BlobStorage
	statements billing.StatementRepository
	stages     billing.StageRepository
	logger     *zap.Logger
}

// NewPersistenceCoordinator creates a PersistenceCoordinator.
func NewPersistenceCoordinator(
	blobs BlobStorage,
	statements billing.StatementRepository,
	stages billing.StageRepository,
	logger *zap.Logger,
) *PersistenceCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersistenceCoordinator{
		blobs:      blobs,
		statements: statements,
		stages:     stages,
		logger:     logger,
	}
}

// Persist uploads one rendered document and records its reference. The
// metadata write happens after the upload; a document that uploaded but
// failed tagging is surfaced as an error rather than silently kept.
func (p *PersistenceCoordinator) Persist(
	ctx context.Context,
	runID uuid.UUID,
	data *billing.StatementData,
	actor billing.ActorType,
	kind billing.ArtifactKind,
	pdf []byte,
) error {
	path := ArtifactPath(data, kind)
	ownerType, ownerID := OwnerFor(data, actor)

	if err := p.blobs.Upload(ctx, path, pdf, pdfContentType); err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}

	meta := map[string]string{
		MetaOwnerName: data.Name,
		MetaOwnerType: string(ownerType),
		MetaDateLabel: data.Month,
	}
	if err := p.blobs.SetMetadata(ctx, path, pdfContentType, meta); err != nil {
		return fmt.Errorf("failed to tag %s: %w", path, err)
	}

	if actor == billing.ActorAdmin && kind == billing.KindDetailedInvoice {
		if data.RetailerID == nil {
			return fmt.Errorf("detailed invoice %s has no retailer", path)
		}
		stage := &billing.DetailedInvoiceStage{
			ID:         uuid.New(),
			RunID:      runID,
			RetailerID: *data.RetailerID,
			DateLabel:  data.Month,
			Path:       path,
		}
		if err := p.stages.Put(ctx, stage); err != nil {
			return fmt.Errorf("failed to stage %s: %w", path, err)
		}
		p.logger.Debug("staged detailed invoice",
			zap.String("path", path),
			zap.String("run_id", runID.String()))
		return nil
	}

	record := &billing.Statement{
		ID:        uuid.New(),
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Kind:      kind,
		DateLabel: data.Month,
		Path:      path,
	}
	if err := p.statements.Append(ctx, record); err != nil {
		return fmt.Errorf("failed to record %s: %w", path, err)
	}

	p.logger.Info("document persisted",
		zap.String("path", path),
		zap.String("owner_type", string(ownerType)),
		zap.String("kind", string(kind)))
	return nil
}
