package extraction

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Bounds for a believable laptop price found in free text.
const (
	hiddenPriceFloor     = 20.0
	loosePriceLowerBound = 50.0
	loosePriceUpperBound = 5000.0
)

// ExtractHiddenPrice looks for the real asking price inside the text of a
// listing published at a symbolic price (1€, 0€). Structured mentions
// ("precio: 450€") win; failing that, the highest loose mention in a
// believable range is assumed to be the asking price. Returns nil when
// nothing credible is found.
func ExtractHiddenPrice(title, description string) *decimal.Decimal {
	fullText := title + "\n" + description

	for _, m := range reHiddenPriceStructured.FindAllStringSubmatch(fullText, 10) {
		val, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if val > hiddenPriceFloor {
			d := decimal.NewFromFloat(val)
			return &d
		}
	}

	best := 0.0
	for _, m := range reHiddenPriceLoose.FindAllStringSubmatch(fullText, 20) {
		val, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if val >= loosePriceLowerBound && val <= loosePriceUpperBound && val > best {
			best = val
		}
	}
	if best > 0 {
		d := decimal.NewFromFloat(best)
		return &d
	}

	return nil
}
