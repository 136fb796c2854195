package listing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/listingguard/risk-engine/internal/domain/errors"
	"github.com/listingguard/risk-engine/internal/domain/values"
)

// ListingRecord is one marketplace listing as delivered by the external
// collector. It is immutable once fetched; this core only reads it.
// Optional fields are pointers: absence means the collector did not have
// the value, which is never a parse error.
type ListingRecord struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Price        *decimal.Decimal `json:"price"`
	Currency     string           `json:"currency"`
	Condition    *string          `json:"condition,omitempty"`
	PublishDate  *time.Time       `json:"publish_date,omitempty"`
	ModifiedDate *time.Time       `json:"modified_date,omitempty"`
	Seller       *SellerProfile   `json:"seller,omitempty"`
	URL          string           `json:"url,omitempty"`
}

// SellerProfile is the read-only seller data attached to a listing.
type SellerProfile struct {
	ID               string     `json:"id"`
	RegistrationDate *time.Time `json:"registration_date,omitempty"`
	ReviewCount      *int       `json:"review_count,omitempty"`
	Rating           *float64   `json:"rating,omitempty"`
}

// Validate checks the fields this core cannot score without, including
// that the currency, when present, is one the money layer accepts. A
// failing record is skipped and logged, never fatal to the batch.
func (l *ListingRecord) Validate() error {
	if l.ID == "" {
		return errors.ErrMissingID
	}
	if l.Price == nil {
		return errors.ErrMissingPrice
	}
	if l.Price.IsNegative() {
		return errors.ErrNegativePrice
	}
	if l.Currency != "" {
		if _, err := values.NewMoney(*l.Price, l.Currency); err != nil {
			return errors.ErrUnsupportedCurrency
		}
	}
	return nil
}

// Money returns the listing price as a Money value. Currency defaults to
// EUR when the collector omitted it.
func (l *ListingRecord) Money() (values.Money, error) {
	if l.Price == nil {
		return values.Money{}, errors.ErrMissingPrice
	}
	currency := l.Currency
	if currency == "" {
		currency = values.EUR
	}
	return values.NewMoney(*l.Price, currency)
}

// PriceFloat returns the price as float64 for statistical math, or 0 when
// the price is absent.
func (l *ListingRecord) PriceFloat() float64 {
	if l.Price == nil {
		return 0
	}
	f, _ := l.Price.Float64()
	return f
}

// FullText returns title and description joined, the form most matchers
// operate on.
func (l *ListingRecord) FullText() string {
	if l.Description == "" {
		return l.Title
	}
	return l.Title + " " + l.Description
}
