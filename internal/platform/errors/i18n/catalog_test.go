package i18n

import (
	"errors"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
)

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}
	fallback := GetCatalog("missing-locale")
	if fallback != base {
		t.Fatal("expected fallback to en-US catalog")
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "hello {{.Name}}",
	})

	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if cat.Format("code", nil) != "hello <no value>" {
		t.Fatal("expected template to render missing metadata")
	}
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "{{ if .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ if .Name }}" {
		t.Fatal("expected template fallback on parse error")
	}
}

func TestRegisterCatalog(t *testing.T) {
	custom := NewCatalog("custom", map[Code]string{"code": "ok"})
	RegisterCatalog("custom", custom)
	if got := GetCatalog("custom"); got != custom {
		t.Fatal("expected registered catalog")
	}
}

func TestLocalizeDomainErrorWithMetadata(t *testing.T) {
	err := apperrors.WithMetadata(apperrors.CodeCartInsufficientStock, "stock exhausted", map[string]string{
		"Available": "2",
	})

	code, message := Localize("en-US", err)
	if code != apperrors.CodeCartInsufficientStock {
		t.Fatalf("code = %q", code)
	}
	if !strings.Contains(message, "2") {
		t.Fatalf("expected available count in message, got %q", message)
	}

	_, translated := Localize("pt-BR", err)
	if translated == message {
		t.Fatalf("expected pt-BR message to differ from en-US, got %q", translated)
	}
}

func TestLocalizeHidesForeignErrors(t *testing.T) {
	code, message := Localize("en-US", errors.New("sql: database is locked"))
	if code != apperrors.CodeUnknown {
		t.Fatalf("code = %q", code)
	}
	if strings.Contains(message, "sql") {
		t.Fatalf("expected internal details hidden, got %q", message)
	}
}
