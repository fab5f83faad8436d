package statement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vaultwrx/billing/internal/domain/billing"
	"go.uber.org/zap"
)

// TemplateNameFor selects the statement template by actor and artifact
// kind. The names mirror the files stored under templates/ in the bucket.
func TemplateNameFor(actor billing.ActorType, kind billing.ArtifactKind) string {
	switch kind {
	case billing.KindStatement:
		switch actor {
		case billing.ActorAdmin:
			return "adminStatement.html"
		case billing.ActorRetailer:
			return "retailerStatement.html"
		default:
			return "statement.html"
		}
	case billing.KindInvoice:
		if actor == billing.ActorAdmin {
			return "retailerInvoice.html"
		}
		return "customerInvoice.html"
	case billing.KindDetailedInvoice:
		return "detailedInvoice.html"
	}
	return "statement.html"
}

// DocumentRenderer turns composed statement payloads into persisted PDF
// documents: template lookup, HTML substitution, PDF conversion, then
// hand-off to the PersistenceCoordinator. One renderer is shared by every
// pipeline in a run; the underlying render engine is reused across
// documents.
type DocumentRenderer struct {
	templates TemplateSource
	html      HTMLRenderer
	pdf       PDFEngine
	persister *PersistenceCoordinator
	logger    *zap.Logger
}

// NewDocumentRenderer creates a DocumentRenderer.
func NewDocumentRenderer(
	templates TemplateSource,
	html HTMLRenderer,
	pdf PDFEngine,
	persister *PersistenceCoordinator,
	logger *zap.Logger,
) *DocumentRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentRenderer{
		templates: templates,
		html:      html,
		pdf:       pdf,
		persister: persister,
		logger:    logger,
	}
}

// Publish renders and persists every payload in dataList for the given
// actor and kind. The template is retrieved once per invocation. Payloads
// with a zero grand total are skipped entirely: no render, no persistence.
// A failure on one document does not stop the remaining documents; the
// collected errors are returned together.
func (r *DocumentRenderer) Publish(
	ctx context.Context,
	runID uuid.UUID,
	dataList []billing.StatementData,
	actor billing.ActorType,
	kind billing.ArtifactKind,
) error {
	if len(dataList) == 0 {
		return nil
	}
	templateName := TemplateNameFor(actor, kind)
	source, err := r.templates.Template(ctx, templateName)
	if err != nil {
		return fmt.Errorf("failed to retrieve template %s: %w", templateName, err)
	}

	var errs []error
	for i := range dataList {
		data := &dataList[i]
		if data.GrandTotal().IsZero() {
			continue
		}

		html, err := r.html.Render(templateName, source, data)
		if err != nil {
			r.logger.Error("template substitution failed",
				zap.String("template", templateName),
				zap.String("name", data.Name),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("render %s for %s: %w", templateName, data.Name, err))
			continue
		}

		pdf, err := r.pdf.RenderPDF(ctx, html, data.Name)
		if err != nil {
			r.logger.Error("PDF conversion failed",
				zap.String("name", data.Name),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("convert PDF for %s: %w", data.Name, err))
			continue
		}

		if err := r.persister.Persist(ctx, runID, data, actor, kind, pdf); err != nil {
			r.logger.Error("failed to persist document",
				zap.String("name", data.Name),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
