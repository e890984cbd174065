package httpapi

import (
	"net/http"
	"slices"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/i18n"
	"github.com/louisbranch/storefront/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
)

type languagesResponse struct {
	Active    string                `json:"active"`
	Languages []i18n.LanguageOption `json:"languages"`
}

type catalogResponse struct {
	Locale   string            `json:"locale"`
	Messages map[string]string `json:"messages"`
}

// handleLanguages lists supported languages labelled in the active one. A
// ?lang selection is persisted in the language cookie.
func (h *Handler) handleLanguages(w http.ResponseWriter, r *http.Request) {
	tag, persist := i18n.ResolveTag(r)
	if persist {
		i18n.SetLanguageCookie(w, tag)
	}
	active := i18n.LocaleString(tag)
	options := i18n.BuildLanguageOptions(active, func(option language.Tag) string {
		return i18n.Translate(tag, i18n.LanguageKey(option))
	})
	h.writeJSON(w, http.StatusOK, languagesResponse{Active: active, Languages: options})
}

// handleCatalog serves one translation namespace. Unsupported locales and
// missing keys fall back to the base locale.
func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	bundle := catalog.Default()
	namespace := r.PathValue("namespace")
	if !slices.Contains(bundle.Namespaces(catalog.BaseLocale), namespace) {
		h.writeError(w, r, apperrors.New(apperrors.CodeNotFound, "unknown namespace"))
		return
	}
	locale := i18n.NormalizeLocale(r.PathValue("locale"))
	resolved, messages := bundle.NamespaceMessagesWithFallback(locale, namespace)
	w.Header().Set("Cache-Control", "public, max-age=300")
	h.writeJSON(w, http.StatusOK, catalogResponse{Locale: resolved, Messages: messages})
}
