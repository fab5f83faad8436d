package rendering

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaultwrx/billing/internal/application/statement"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Ensure TemplateEngine implements statement.HTMLRenderer
var _ statement.HTMLRenderer = (*TemplateEngine)(nil)

// TemplateEngine binds statement payloads to HTML templates.
// It uses Go's html/template package with custom functions for formatting.
type TemplateEngine struct {
	funcMap template.FuncMap
}

// NewTemplateEngine creates a new template engine with the statement helpers
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{
		funcMap: template.FuncMap{
			// Statement helpers
			"currency": currencyFunc,
			"link":     linkFunc,
			"math":     mathFunc,

			// Date formatting
			"formatDate": formatDate,

			// String utilities
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
			"title": titleCase,
			"trim":  strings.TrimSpace,

			// Conditional
			"default": defaultFunc,

			// Safe HTML for trusted, system-generated fragments only
			"safeHTML": safeHTML,
		},
	}
}

// Render parses the template source and executes it against the payload.
func (e *TemplateEngine) Render(name, source string, data interface{}) (string, error) {
	if source == "" {
		return "", fmt.Errorf("template %q has no content", name)
	}

	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(source)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %q: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %q: %w", name, err)
	}

	return buf.String(), nil
}

// =============================================================================
// Template Functions - Money Formatting
// =============================================================================

// currencyFunc formats a decimal value as US dollars
// Example: 1234.5 -> "$1,234.50"
func currencyFunc(v interface{}) string {
	d := toDecimal(v)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	parts := strings.Split(d.StringFixed(2), ".")
	intPart := parts[0]
	decPart := "00"
	if len(parts) > 1 {
		decPart = parts[1]
	}

	var result strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}

	return sign + "$" + result.String() + "." + decPart
}

// =============================================================================
// Template Functions - Links
// =============================================================================

// linkFunc renders an anchor tag. The text is escaped; the URL is
// system-generated (presigned storage URLs, order detail links) and
// trusted as-is.
func linkFunc(text, url string) template.HTML {
	var buf bytes.Buffer
	buf.WriteString(`<a href="`)
	template.HTMLEscape(&buf, []byte(url))
	buf.WriteString(`">`)
	template.HTMLEscape(&buf, []byte(text))
	buf.WriteString(`</a>`)
	return template.HTML(buf.String())
}

// =============================================================================
// Template Functions - Arithmetic
// =============================================================================

// mathFunc evaluates a binary arithmetic expression inside a template
// Example: {{ math .Subtotal "+" .Tax }}
func mathFunc(lhs interface{}, op string, rhs interface{}) decimal.Decimal {
	a := toDecimal(lhs)
	b := toDecimal(rhs)

	switch op {
	case "+":
		return a.Add(b)
	case "-":
		return a.Sub(b)
	case "*":
		return a.Mul(b)
	case "/":
		if b.IsZero() {
			return decimal.Zero
		}
		return a.Div(b)
	case "%":
		if b.IsZero() {
			return decimal.Zero
		}
		return a.Mod(b)
	default:
		return decimal.Zero
	}
}

// =============================================================================
// Template Functions - Misc
// =============================================================================

// formatDate formats a time value as date string
// Example: time.Now() -> "2024-01-15"
func formatDate(v interface{}) string {
	t, ok := v.(time.Time)
	if !ok || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// titleCase converts string to title case using proper Unicode handling
func titleCase(s string) string {
	caser := cases.Title(language.English)
	return caser.String(s)
}

func defaultFunc(val, def interface{}) interface{} {
	switch v := val.(type) {
	case nil:
		return def
	case string:
		if v == "" {
			return def
		}
	}
	return val
}

// safeHTML marks a string as safe HTML, bypassing automatic escaping.
// SECURITY: Only use with trusted, non-user-generated content.
func safeHTML(s string) template.HTML {
	return template.HTML(s)
}

// toDecimal converts various types to decimal.Decimal
func toDecimal(v interface{}) decimal.Decimal {
	switch val := v.(type) {
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case int:
		return decimal.NewFromInt(int64(val))
	case int32:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float32:
		return decimal.NewFromFloat(float64(val))
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
