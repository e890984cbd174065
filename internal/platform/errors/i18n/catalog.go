// Package i18n renders localized user-facing messages for domain errors.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	i18ncatalog "github.com/louisbranch/storefront/internal/platform/i18n/catalog"
)

// Code is a machine-readable error code (string form of apperrors.Code).
type Code = string

const (
	errorsNamespace = "errors"
	internalKey     = "INTERNAL"
)

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	messages map[Code]string

	mu        sync.Mutex
	templates map[Code]*template.Template
}

var (
	catalogsMu sync.RWMutex
	// catalogs holds override and runtime-built catalogs by locale.
	catalogs = map[string]*Catalog{}
)

// GetCatalog returns the catalog for the given locale.
// Falls back to the base locale if the locale is not found.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = i18ncatalog.BaseLocale
	}

	if c, ok := lookupCatalog(requested); ok {
		return c
	}

	resolvedLocale, messages := i18ncatalog.Default().NamespaceMessagesWithFallback(requested, errorsNamespace)
	if c, ok := lookupCatalog(resolvedLocale); ok {
		return c
	}

	built := NewCatalog(resolvedLocale, messages)
	return storeCatalogIfAbsent(resolvedLocale, built)
}

// Localize returns the code and user-facing message for err in locale.
// Errors outside the domain error type render as the generic internal message
// so storage and driver details never reach clients.
func Localize(locale string, err error) (apperrors.Code, string) {
	cat := GetCatalog(locale)
	domainErr, ok := apperrors.As(err)
	if !ok {
		return apperrors.CodeUnknown, cat.Format(internalKey, nil)
	}
	code := string(domainErr.Code)
	if _, found := cat.messages[code]; !found {
		if domainErr.Code.HTTPStatus() >= 500 {
			return domainErr.Code, cat.Format(internalKey, nil)
		}
		return domainErr.Code, domainErr.Message
	}
	return domainErr.Code, cat.Format(code, domainErr.Metadata)
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found.
// Templates are always executed even with nil/empty metadata so missing
// variables render consistently.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}

	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := c.template(code, tmpl)
	if err != nil {
		return tmpl
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

func (c *Catalog) template(code Code, source string) (*template.Template, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.templates[code]; ok {
		return t, nil
	}
	t, err := template.New(code).Parse(source)
	if err != nil {
		return nil, err
	}
	if c.templates == nil {
		c.templates = map[Code]*template.Template{}
	}
	c.templates[code] = t
	return t, nil
}

// RegisterCatalog registers a catalog for the given locale, replacing any
// catalog built from the embedded bundle. Intended for init and test setup.
func RegisterCatalog(locale string, cat *Catalog) {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	catalogs[locale] = cat
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{
		locale:   locale,
		messages: cloned,
	}
}

func lookupCatalog(locale string) (*Catalog, bool) {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	cat, ok := catalogs[locale]
	return cat, ok
}

func storeCatalogIfAbsent(locale string, candidate *Catalog) *Catalog {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	if existing, ok := catalogs[locale]; ok {
		return existing
	}
	catalogs[locale] = candidate
	return candidate
}
