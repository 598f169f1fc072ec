package domain

import (
	"github.com/shopspring/decimal"
)

// CentsFromAmount converts a currency amount into cents. Amounts must be
// positive and have at most two decimal places.
func CentsFromAmount(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}
	cents := amount.Shift(2)
	if !cents.IsInteger() {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// ParseAmount parses a decimal string such as "10.50" into cents.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return CentsFromAmount(d)
}

// CentsToCoins returns how many coins a cents amount is worth.
func CentsToCoins(cents int64) int64 {
	return cents * coinsPerCent
}

// CoinsToMoney converts coins into currency units with up to four decimals.
func CoinsToMoney(coins int64) decimal.Decimal {
	return decimal.New(coins, 0).Div(decimal.New(CoinsPerUnit, 0))
}

// CentsToMoney converts cents into a currency amount.
func CentsToMoney(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatCents renders cents as a fixed two-decimal string.
func FormatCents(cents int64) string {
	return CentsToMoney(cents).StringFixed(2)
}
