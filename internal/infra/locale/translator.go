package locale

import (
	"context"
	"strings"

	"rstays/internal/app/policies"
	"rstays/internal/domain/booking"
	"rstays/internal/domain/pricing"
)

// labels holds display translations for the engine's line-item names.
// Labels are presentational only; amounts are never touched here.
var labels = map[string]map[string]string{
	"en": {
		"base":        "Nightly rate",
		"weekend":     "Weekend deal",
		"discount":    "Discount",
		"last-minute": "Last-minute discount",
		"cleaning":    "Cleaning fee",
		"service":     "Service fee",
		"city-tax":    "City tax",
		"vat":         "VAT",
		"promo":       "Promo code",
	},
	"de": {
		"base":        "Übernachtungspreis",
		"weekend":     "Wochenendangebot",
		"discount":    "Rabatt",
		"last-minute": "Last-Minute-Rabatt",
		"cleaning":    "Reinigungsgebühr",
		"service":     "Servicegebühr",
		"city-tax":    "Kurtaxe",
		"vat":         "MwSt.",
		"promo":       "Gutscheincode",
	},
	"es": {
		"base":        "Tarifa por noche",
		"weekend":     "Oferta de fin de semana",
		"discount":    "Descuento",
		"last-minute": "Descuento de última hora",
		"cleaning":    "Tarifa de limpieza",
		"service":     "Tarifa de servicio",
		"city-tax":    "Tasa turística",
		"vat":         "IVA",
		"promo":       "Código promocional",
	},
}

// StaticTranslator resolves labels from the built-in table. Unknown names
// keep their stored name as the label.
type StaticTranslator struct{}

func (StaticTranslator) TranslateBookingPrices(ctx context.Context, bookings []*booking.Booking, lang string) error {
	table, ok := labels[normalize(lang)]
	if !ok {
		table = labels["en"]
	}
	for _, b := range bookings {
		if b == nil {
			continue
		}
		translate(b.Discounts, table)
		translate(b.Services, table)
		translate(b.Taxes, table)
	}
	return nil
}

func translate(items []pricing.LineItem, table map[string]string) {
	for i := range items {
		key := strings.ToLower(strings.TrimSpace(items[i].Name))
		if label, ok := table[key]; ok {
			items[i].Label = label
			continue
		}
		items[i].Label = items[i].Name
	}
}

func normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if idx := strings.IndexAny(lang, "-_"); idx > 0 {
		lang = lang[:idx]
	}
	return lang
}

var _ policies.LocalizationPort = StaticTranslator{}
