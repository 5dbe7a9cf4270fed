package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a non-negative monetary value in a single currency.
// Values are immutable; arithmetic returns a new Money and requires matching
// currencies. Equality is by value.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"` // ISO 4217, uppercase: "USD", "CNY"
}

// NewMoney creates a Money value. The amount must be non-negative and the
// currency a 3-letter code.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return Money{}, NewInvalidCurrencyError(currency)
	}
	if amount.IsNegative() {
		return Money{}, NewNegativeAmountError(fmt.Sprintf("money amount cannot be negative: %s", amount))
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// MustMoney is NewMoney that panics on invalid input. For fixtures and wiring
// of compile-time constants only.
func MustMoney(amount string, currency string) Money {
	m, err := NewMoney(decimal.RequireFromString(amount), currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns a zero value in the given currency
func ZeroMoney(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: strings.ToUpper(currency)}
}

// Add returns the sum of two Money values
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, NewCurrencyMismatchError(m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Subtract returns the difference of two Money values. A negative result is
// an error: Money never goes below zero.
func (m Money) Subtract(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, NewCurrencyMismatchError(m.Currency, other.Currency)
	}
	result := m.Amount.Sub(other.Amount)
	if result.IsNegative() {
		return Money{}, NewNegativeAmountError(
			fmt.Sprintf("subtracting %s from %s would go negative", other.Amount, m.Amount))
	}
	return Money{Amount: result, Currency: m.Currency}, nil
}

// Multiply scales the Money by a non-negative factor
func (m Money) Multiply(factor decimal.Decimal) (Money, error) {
	if factor.IsNegative() {
		return Money{}, NewNegativeAmountError(fmt.Sprintf("multiplier cannot be negative: %s", factor))
	}
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}, nil
}

// Equal returns true if both amount and currency match
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// LessThan compares amounts. Currencies must match.
func (m Money) LessThan(other Money) (bool, error) {
	if m.Currency != other.Currency {
		return false, NewCurrencyMismatchError(m.Currency, other.Currency)
	}
	return m.Amount.LessThan(other.Amount), nil
}

// String formats the value as "125.50 USD"
func (m Money) String() string {
	return m.Amount.String() + " " + m.Currency
}
