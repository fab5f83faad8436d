// Package rendering converts statement payloads into HTML and PDF documents.
package rendering

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/vaultwrx/billing/internal/application/statement"
	infraconfig "github.com/vaultwrx/billing/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultRenderTimeout = 60 * time.Second

	// A4 portrait
	paperWidthMM  = 210
	paperHeightMM = 297
	pageMarginMM  = 10
)

// Ensure ChromedpEngine implements statement.PDFEngine
var _ statement.PDFEngine = (*ChromedpEngine)(nil)

// ChromedpEngine renders HTML to PDF through the Chrome DevTools Protocol.
// The browser allocator is created once and shared across documents; each
// RenderPDF call opens a fresh tab against it.
type ChromedpEngine struct {
	timeout     time.Duration
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// ChromedpEngineOption configures the engine
type ChromedpEngineOption func(*ChromedpEngine)

// WithLogger sets a custom logger for ChromedpEngine
func WithLogger(logger *zap.Logger) ChromedpEngineOption {
	return func(e *ChromedpEngine) {
		e.logger = logger
	}
}

// NewChromedpEngine creates a PDF engine backed by a headless Chrome instance.
func NewChromedpEngine(cfg *infraconfig.RenderConfig, opts ...ChromedpEngineOption) (*ChromedpEngine, error) {
	if cfg == nil {
		cfg = &infraconfig.RenderConfig{}
	}

	engine := &ChromedpEngine{
		timeout: cfg.RenderTimeout,
		logger:  zap.NewNop(),
	}
	if engine.timeout == 0 {
		engine.timeout = defaultRenderTimeout
	}

	for _, opt := range opts {
		opt(engine)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.ChromePath))
	}

	engine.allocCtx, engine.allocCancel = chromedp.NewExecAllocator(context.Background(), allocOpts...)

	return engine, nil
}

// RenderPDF converts the HTML document into an A4 PDF.
func (e *ChromedpEngine) RenderPDF(ctx context.Context, html, title string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, errors.New("html content is empty")
	}

	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(e.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			e.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	document := completeHTML(html, title)
	margin := mmToInches(pageMarginMM)

	var pdfData []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, document).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(mmToInches(paperWidthMM)).
				WithPaperHeight(mmToInches(paperHeightMM)).
				WithMarginTop(margin).
				WithMarginRight(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithScale(1.0).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfData = data
			return nil
		}),
	)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("pdf rendering timed out after %v: %w", e.timeout, err)
		}
		e.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, fmt.Errorf("chromedp execution failed: %w", err)
	}

	if len(pdfData) == 0 {
		return nil, errors.New("generated PDF is empty")
	}

	e.logger.Debug("PDF rendered",
		zap.String("title", title),
		zap.Int("bytes", len(pdfData)),
		zap.Duration("duration", time.Since(startTime)))

	return pdfData, nil
}

// Close releases the shared browser allocator.
func (e *ChromedpEngine) Close() error {
	if e.allocCancel != nil {
		e.allocCancel()
	}
	return nil
}

// completeHTML wraps bare markup in a full document so Chrome gets a
// well formed page. Documents that already declare <html> pass through.
func completeHTML(html, title string) string {
	lower := strings.ToLower(html)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return html
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html><html><head>")
	buf.WriteString("<meta charset=\"UTF-8\">")
	if title != "" {
		buf.WriteString("<title>")
		buf.WriteString(title)
		buf.WriteString("</title>")
	}
	buf.WriteString("</head><body>")
	buf.WriteString(html)
	buf.WriteString("</body></html>")
	return buf.String()
}

// mmToInches converts millimeters to inches
func mmToInches(mm float64) float64 {
	return mm / 25.4
}
