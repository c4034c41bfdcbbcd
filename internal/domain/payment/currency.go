package payment

import "fmt"

// Currency is the closed set of currencies a payment can be made in.
type Currency string

const (
	CurrencySYP Currency = "SYP"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Currencies lists all supported currencies.
func Currencies() []Currency {
	return []Currency{CurrencySYP, CurrencyUSD, CurrencyEUR}
}

// IsValid returns true if the currency is supported.
func (c Currency) IsValid() bool {
	switch c {
	case CurrencySYP, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

// String returns the ISO code of the currency.
func (c Currency) String() string {
	return string(c)
}

// ParseCurrency converts a string to a Currency, returning an error if unsupported.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if !c.IsValid() {
		return "", fmt.Errorf("unsupported currency: %s", s)
	}
	return c, nil
}
