package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	// Registers catalog messages with x/text/message.
	_ "github.com/louisbranch/storefront/internal/platform/i18n/catalog"
)

// Printer returns a message printer for tag backed by the embedded catalogs.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// Translate renders a catalog key for tag. Unknown keys render as the key.
func Translate(tag language.Tag, key string, args ...any) string {
	return Printer(tag).Sprintf(key, args...)
}

// FormatPrice renders an amount in minor units as a localized number prefixed
// by the ISO currency code, for example "USD 1,234.50" or "BRL 1.234,50".
func FormatPrice(tag language.Tag, cents int64, code string) string {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return fmt.Sprintf("%d %s", cents, code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	amount := float64(cents)
	for i := 0; i < scale; i++ {
		amount /= 10
	}
	return unit.String() + " " + Printer(tag).Sprint(number.Decimal(amount, number.Scale(scale)))
}
