/*
Package generic provides calendar and quantity primitives shared by the
leave packages.

KEY CONCEPTS:
  - Date: a civil calendar day (time.go)
  - Period: an inclusive [Start, End] range of dates (period.go)
  - Amount: a quantity of leave days (this file)
  - Errors: sentinel and structured errors (errors.go)

DESIGN PRINCIPLES:
  1. Precision: balances use decimal.Decimal so half days never drift
  2. Value types: Date, Period and Amount are immutable values
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity of leave days
// =============================================================================

type Amount struct {
	Value decimal.Decimal
}

func NewAmount(value float64) Amount    { return Amount{Value: decimal.NewFromFloat(value)} }
func NewAmountFromInt(value int) Amount { return Amount{Value: decimal.NewFromInt(int64(value))} }

// ParseAmount parses "2.5" style quantities.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: d}, nil
}

func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Neg() Amount               { return Amount{Value: a.Value.Neg()} }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) Equal(b Amount) bool       { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) Float64() float64          { return a.Value.InexactFloat64() }
func (a Amount) String() string            { return a.Value.String() }
