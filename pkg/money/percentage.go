package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Percentage validation failures
var (
	// ErrInvalidPercentage indicates the value is out of range or too precise
	ErrInvalidPercentage = errors.New("invalid percentage value")
	// ErrPercentageOverflow indicates the amount is too large to apply a percentage to
	ErrPercentageOverflow = errors.New("cannot apply percentage to amount")
)

// maxPercentageAmount bounds ApplyAndCeil inputs; beyond it the float
// multiplication loses integer precision.
const maxPercentageAmount = math.MaxInt64 / 10000

// Percentage is a value between 0 and 100 inclusive with a bounded number of
// decimal digits. Construct with NewPercentageFromString.
type Percentage struct {
	value     float64
	precision int
}

// NewPercentageFromString parses and validates a percentage. The value must
// parse as a float in [0, 100] and carry at most precision decimal digits
// (trailing zeros excluded).
func NewPercentageFromString(value string, precision int) (Percentage, error) {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return Percentage{}, fmt.Errorf("%w: %q is not a number", ErrInvalidPercentage, value)
	}
	if parsed < 0 || parsed > 100 {
		return Percentage{}, fmt.Errorf("%w: %q is not between 0 and 100", ErrInvalidPercentage, value)
	}
	if !hasValidPrecision(value, precision) {
		return Percentage{}, fmt.Errorf("%w: %q exceeds %d decimal digits", ErrInvalidPercentage, value, precision)
	}
	return Percentage{value: parsed, precision: precision}, nil
}

func hasValidPrecision(value string, precision int) bool {
	_, decimalPart, found := strings.Cut(value, ".")
	if !found {
		return true
	}
	return len(strings.TrimRight(decimalPart, "0")) <= precision
}

// Float64 returns the percentage as a float value
func (p Percentage) Float64() float64 {
	return p.value
}

// String renders the percentage in its shortest decimal form; it is not
// padded with trailing zeros up to the precision
func (p Percentage) String() string {
	return strconv.FormatFloat(p.value, 'f', -1, 64)
}

// ApplyAndCeil applies the percentage to an amount and rounds the result up.
// Amounts above MaxInt64/10000 are rejected; the multiplication would round.
func (p Percentage) ApplyAndCeil(amount MinorUnit) (MinorUnit, error) {
	if amount.Int64() > maxPercentageAmount {
		return MinorUnit{}, fmt.Errorf("%w larger than %d", ErrPercentageOverflow, maxPercentageAmount)
	}
	result := math.Ceil(float64(amount.Int64()) * (p.value / 100.0))
	return NewMinorUnit(int64(result)), nil
}

// Surcharge is either a fixed minor unit amount or a percentage rate applied
// to the payment amount.
type Surcharge struct {
	Fixed *MinorUnit
	Rate  *Percentage
}

// Apply resolves the surcharge against a payment amount
func (s Surcharge) Apply(amount MinorUnit) (MinorUnit, error) {
	if s.Fixed != nil {
		return *s.Fixed, nil
	}
	if s.Rate != nil {
		return s.Rate.ApplyAndCeil(amount)
	}
	return ZeroMinorUnit(), nil
}
