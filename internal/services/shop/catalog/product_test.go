package catalog

import (
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/pagination"
)

func validInput() ProductInput {
	return ProductInput{
		Slug:       "blue-shirt",
		Name:       "Blue shirt",
		PriceCents: 2500,
		Currency:   "usd",
		Stock:      3,
		Category:   "Shirts",
		Active:     true,
	}
}

func TestNormalizeProductInput(t *testing.T) {
	t.Parallel()

	got, err := NormalizeProductInput(validInput())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.Currency != "USD" || got.Category != "shirts" {
		t.Fatalf("got = %+v", got)
	}

	input := validInput()
	input.Currency = ""
	got, err = NormalizeProductInput(input)
	if err != nil || got.Currency != DefaultCurrency {
		t.Fatalf("default currency = (%q, %v)", got.Currency, err)
	}
}

func TestNormalizeProductInputRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		field  string
		mutate func(*ProductInput)
	}{
		{"slug", func(p *ProductInput) { p.Slug = "Bad Slug" }},
		{"slug", func(p *ProductInput) { p.Slug = "trailing-" }},
		{"slug", func(p *ProductInput) { p.Slug = strings.Repeat("a", 81) }},
		{"name", func(p *ProductInput) { p.Name = "  " }},
		{"name", func(p *ProductInput) { p.Name = strings.Repeat("n", 121) }},
		{"description", func(p *ProductInput) { p.Description = strings.Repeat("d", 4001) }},
		{"price_cents", func(p *ProductInput) { p.PriceCents = -1 }},
		{"currency", func(p *ProductInput) { p.Currency = "XYZW" }},
		{"stock", func(p *ProductInput) { p.Stock = -2 }},
		{"category", func(p *ProductInput) { p.Category = "tees & tops" }},
	}
	for _, tc := range tests {
		input := validInput()
		tc.mutate(&input)
		_, err := NormalizeProductInput(input)
		domainErr, ok := apperrors.As(err)
		if !ok || domainErr.Code != apperrors.CodeProductInvalidField || domainErr.Metadata["Field"] != tc.field {
			t.Fatalf("%s: err = %v", tc.field, err)
		}
	}
}

func TestNewProduct(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	p, err := NewProduct(validInput(), func() time.Time { return now }, func() (string, error) { return "p1", nil })
	if err != nil {
		t.Fatalf("new product: %v", err)
	}
	if p.ID != "p1" || p.Slug != "blue-shirt" || !p.CreatedAt.Equal(now) || !p.UpdatedAt.Equal(now) {
		t.Fatalf("product = %+v", p)
	}
	if !p.InStock(3) || p.InStock(4) {
		t.Fatalf("stock checks wrong for %d", p.Stock)
	}
}

func TestFormatMinorUnits(t *testing.T) {
	t.Parallel()

	cases := []struct {
		cents int64
		code  string
		want  string
	}{
		{1250, "USD", "12.50"},
		{5, "BRL", "0.05"},
		{500, "JPY", "500"},
		{-199, "EUR", "-1.99"},
	}
	for _, tc := range cases {
		if got := FormatMinorUnits(tc.cents, tc.code); got != tc.want {
			t.Fatalf("FormatMinorUnits(%d, %s) = %q, want %q", tc.cents, tc.code, got, tc.want)
		}
	}
}

func TestParseListQuery(t *testing.T) {
	t.Parallel()

	q, err := ParseListQuery(ListRequest{Filter: `category = "shirts"`, PageSize: 500})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if q.OrderBy != DefaultOrderBy || q.PageSize != MaxPageSize || q.Where.Clause != "category = ?" || q.Offset != 0 {
		t.Fatalf("query = %+v", q)
	}

	next := pagination.NextToken(0, q.PageSize, q.PageSize+1, q.Token)
	q2, err := ParseListQuery(ListRequest{Filter: `category = "shirts"`, PageSize: 500, PageToken: next})
	if err != nil || q2.Offset != MaxPageSize {
		t.Fatalf("second page = (%+v, %v)", q2, err)
	}

	if _, err := ParseListQuery(ListRequest{Filter: `category = "hats"`, PageToken: next}); apperrors.CodeOf(err) != apperrors.CodeInvalidPageToken {
		t.Fatalf("mismatched token err = %v", err)
	}
	if _, err := ParseListQuery(ListRequest{Filter: "NOT active"}); apperrors.CodeOf(err) != apperrors.CodeInvalidFilter {
		t.Fatalf("public filter on active: %v", err)
	}
	if admin, err := ParseListQuery(ListRequest{Filter: "NOT active", IncludeInactive: true}); err != nil || admin.Where.Clause != "(NOT active = ?)" {
		t.Fatalf("admin filter on active = (%+v, %v)", admin.Where, err)
	}
	if _, err := ParseListQuery(ListRequest{Filter: `owner = "x"`}); apperrors.CodeOf(err) != apperrors.CodeInvalidFilter {
		t.Fatalf("bad filter err = %v", err)
	}
	if _, err := ParseListQuery(ListRequest{OrderBy: "stock"}); apperrors.CodeOf(err) != apperrors.CodeInvalidOrderBy {
		t.Fatalf("bad order err = %v", err)
	}
}

func TestListQueryPage(t *testing.T) {
	t.Parallel()

	q, err := ParseListQuery(ListRequest{PageSize: 2})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fetched := []Product{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	page := q.Page(fetched)
	if len(page.Products) != 2 || page.NextPageToken == "" {
		t.Fatalf("page = %+v", page)
	}
	next, err := ParseListQuery(ListRequest{PageSize: 2, PageToken: page.NextPageToken})
	if err != nil || next.Offset != 2 {
		t.Fatalf("next = (%+v, %v)", next, err)
	}
	if last := q.Page(fetched[:2]); last.NextPageToken != "" || len(last.Products) != 2 {
		t.Fatalf("last page = %+v", last)
	}
}
