// Package catalog models products offered by the storefront.
package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/id"
	"golang.org/x/text/currency"
)

const (
	maxSlugLength       = 80
	maxNameRunes        = 120
	maxDescriptionRunes = 4000
	maxCategoryLength   = 64
	DefaultCurrency     = "USD"
	DefaultPageSize     = 20
	MaxPageSize         = 100
	DefaultOrderBy      = "created_at desc"
)

// OrderByOptions lists the accepted product order_by values.
var OrderByOptions = []string{DefaultOrderBy, "price_cents", "price_cents desc", "name"}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Product is a sellable catalog item. Prices are in the currency's minor unit.
type Product struct {
	ID          string
	Slug        string
	Name        string
	Description string
	PriceCents  int64
	Currency    string
	Stock       int64
	Category    string
	ImageKey    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InStock reports whether at least quantity units are available.
func (p Product) InStock(quantity int64) bool {
	return p.Stock >= quantity
}

// ProductInput is the editable part of a product.
type ProductInput struct {
	Slug        string
	Name        string
	Description string
	PriceCents  int64
	Currency    string
	Stock       int64
	Category    string
	Active      bool
}

func invalidField(field string) error {
	return apperrors.WithMetadata(apperrors.CodeProductInvalidField, "product "+field+" is invalid", map[string]string{"Field": field})
}

// ValidSlug reports whether value is a lowercase dash-separated slug.
func ValidSlug(value string) bool {
	return len(value) <= maxSlugLength && slugPattern.MatchString(value)
}

// NormalizeProductInput trims and validates editable product fields.
func NormalizeProductInput(input ProductInput) (ProductInput, error) {
	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	if !ValidSlug(input.Slug) {
		return ProductInput{}, invalidField("slug")
	}

	input.Name = strings.TrimSpace(input.Name)
	if n := utf8.RuneCountInString(input.Name); n == 0 || n > maxNameRunes {
		return ProductInput{}, invalidField("name")
	}

	input.Description = strings.TrimSpace(input.Description)
	if utf8.RuneCountInString(input.Description) > maxDescriptionRunes {
		return ProductInput{}, invalidField("description")
	}

	if input.PriceCents < 0 {
		return ProductInput{}, invalidField("price_cents")
	}

	code := strings.ToUpper(strings.TrimSpace(input.Currency))
	if code == "" {
		code = DefaultCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return ProductInput{}, invalidField("currency")
	}
	input.Currency = unit.String()

	if input.Stock < 0 {
		return ProductInput{}, invalidField("stock")
	}

	input.Category = strings.ToLower(strings.TrimSpace(input.Category))
	if input.Category != "" && (len(input.Category) > maxCategoryLength || !slugPattern.MatchString(input.Category)) {
		return ProductInput{}, invalidField("category")
	}
	return input, nil
}

// NewProduct builds a product from validated input.
func NewProduct(input ProductInput, now func() time.Time, idGenerator func() (string, error)) (Product, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	normalized, err := NormalizeProductInput(input)
	if err != nil {
		return Product{}, err
	}
	productID, err := idGenerator()
	if err != nil {
		return Product{}, fmt.Errorf("generate product id: %w", err)
	}
	createdAt := now().UTC()
	product := Product{ID: productID, CreatedAt: createdAt}
	return product.Apply(normalized, createdAt), nil
}

// Apply replaces the editable fields of p with normalized input.
func (p Product) Apply(input ProductInput, now time.Time) Product {
	p.Slug = input.Slug
	p.Name = input.Name
	p.Description = input.Description
	p.PriceCents = input.PriceCents
	p.Currency = input.Currency
	p.Stock = input.Stock
	p.Category = input.Category
	p.Active = input.Active
	p.UpdatedAt = now.UTC()
	return p
}

// ErrSlugTaken builds the conflict error for a duplicate slug.
func ErrSlugTaken(slug string) error {
	return apperrors.WithMetadata(apperrors.CodeProductSlugTaken, "slug already in use", map[string]string{"Slug": slug})
}

// Category summarizes active products in one category.
type Category struct {
	Name  string
	Count int64
}

// FormatMinorUnits renders cents as a plain decimal string such as "12.50".
func FormatMinorUnits(cents int64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return strconv.FormatInt(cents, 10)
	}
	scale, _ := currency.Standard.Rounding(unit)
	if scale == 0 {
		return strconv.FormatInt(cents, 10)
	}
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	divisor := int64(1)
	for i := 0; i < scale; i++ {
		divisor *= 10
	}
	return fmt.Sprintf("%s%d.%0*d", sign, cents/divisor, scale, cents%divisor)
}
