package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// Conversion failures. Each maps to a distinct parsing failure surfaced to
// the caller; none of them is retriable.
var (
	// ErrStringToDecimal indicates a connector amount string could not be parsed
	ErrStringToDecimal = errors.New("failed to convert string to decimal")
	// ErrDecimalToI64 indicates a decimal value does not fit in an i64 minor unit
	ErrDecimalToI64 = errors.New("failed to convert decimal to i64")
	// ErrFloatToDecimal indicates a float amount was NaN or infinite
	ErrFloatToDecimal = errors.New("failed to convert float to decimal")
)

// Converter transforms the core minor unit amount into the representation a
// connector demands, and back. Implementations must satisfy the round-trip
// law: ConvertBack(Convert(n, cur), cur) == n for any non-negative n that
// fits the currency's precision.
type Converter[T any] interface {
	Convert(amount MinorUnit, currency Currency) (T, error)
	ConvertBack(amount T, currency Currency) (MinorUnit, error)
}

// StringMinorUnit is a connector amount expressed as a decimal string of
// integer minor units.
type StringMinorUnit struct {
	value string
}

// NewStringMinorUnit wraps a raw connector minor unit string
func NewStringMinorUnit(value string) StringMinorUnit {
	return StringMinorUnit{value: value}
}

// String returns the wrapped amount string
func (s StringMinorUnit) String() string {
	return s.value
}

// StringMajorUnit is a connector amount expressed as a currency-precision
// aware decimal string of major units.
type StringMajorUnit struct {
	value string
}

// NewStringMajorUnit wraps a raw connector major unit string
func NewStringMajorUnit(value string) StringMajorUnit {
	return StringMajorUnit{value: value}
}

// String returns the wrapped amount string
func (s StringMajorUnit) String() string {
	return s.value
}

// FloatMajorUnit is a connector amount expressed as a float of major units.
type FloatMajorUnit struct {
	value float64
}

// NewFloatMajorUnit wraps a raw connector float amount
func NewFloatMajorUnit(value float64) FloatMajorUnit {
	return FloatMajorUnit{value: value}
}

// Float64 returns the wrapped float value
func (f FloatMajorUnit) Float64() float64 {
	return f.value
}

var (
	maxI64Decimal = decimal.NewFromInt(math.MaxInt64)
	minI64Decimal = decimal.NewFromInt(math.MinInt64)
	hundred       = decimal.NewFromInt(100)
	thousand      = decimal.NewFromInt(1000)
)

func decimalToI64(d decimal.Decimal) (int64, error) {
	if d.Cmp(maxI64Decimal) > 0 || d.Cmp(minI64Decimal) < 0 {
		return 0, ErrDecimalToI64
	}
	return d.IntPart(), nil
}

// toMajorDecimal divides the minor unit amount by the currency's scale using
// exact decimal arithmetic. Binary float math never enters the conversion
// until the final cast.
func toMajorDecimal(amount MinorUnit, currency Currency) decimal.Decimal {
	d := decimal.NewFromInt(amount.Int64())
	switch {
	case currency.IsZeroDecimal():
		return d
	case currency.IsThreeDecimal():
		return d.Div(thousand)
	default:
		return d.Div(hundred)
	}
}

// fromMajorDecimal multiplies a major unit decimal back into minor units.
func fromMajorDecimal(d decimal.Decimal, currency Currency) (MinorUnit, error) {
	switch {
	case currency.IsZeroDecimal():
	case currency.IsThreeDecimal():
		d = d.Mul(thousand)
	default:
		d = d.Mul(hundred)
	}
	value, err := decimalToI64(d)
	if err != nil {
		return MinorUnit{}, err
	}
	return NewMinorUnit(value), nil
}

// MinorUnitForConnector passes the core amount through unchanged.
type MinorUnitForConnector struct{}

func (MinorUnitForConnector) Convert(amount MinorUnit, _ Currency) (MinorUnit, error) {
	return amount, nil
}

func (MinorUnitForConnector) ConvertBack(amount MinorUnit, _ Currency) (MinorUnit, error) {
	return amount, nil
}

// StringMinorUnitForConnector renders the amount as an integer minor unit string.
type StringMinorUnitForConnector struct{}

func (StringMinorUnitForConnector) Convert(amount MinorUnit, _ Currency) (StringMinorUnit, error) {
	return NewStringMinorUnit(amount.String()), nil
}

func (StringMinorUnitForConnector) ConvertBack(amount StringMinorUnit, _ Currency) (MinorUnit, error) {
	d, err := decimal.NewFromString(amount.String())
	if err != nil {
		return MinorUnit{}, ErrStringToDecimal
	}
	value, err := decimalToI64(d)
	if err != nil {
		return MinorUnit{}, err
	}
	return NewMinorUnit(value), nil
}

// StringMajorUnitForConnector renders the amount as a major unit decimal
// string with the currency's fractional digit count: none for zero-decimal,
// two for two-decimal, three for three-decimal currencies.
type StringMajorUnitForConnector struct{}

func (StringMajorUnitForConnector) Convert(amount MinorUnit, currency Currency) (StringMajorUnit, error) {
	d := toMajorDecimal(amount, currency)
	if currency.IsZeroDecimal() {
		return NewStringMajorUnit(d.String()), nil
	}
	return NewStringMajorUnit(d.StringFixed(int32(currency.Precision()))), nil
}

func (StringMajorUnitForConnector) ConvertBack(amount StringMajorUnit, currency Currency) (MinorUnit, error) {
	d, err := decimal.NewFromString(amount.String())
	if err != nil {
		return MinorUnit{}, ErrStringToDecimal
	}
	return fromMajorDecimal(d, currency)
}

// StringMajorUnitForCore is the core-facing formatting of a major unit
// string; the representation matches StringMajorUnitForConnector.
type StringMajorUnitForCore struct {
	StringMajorUnitForConnector
}

// FloatMajorUnitForConnector renders the amount as a float of major units.
// The intermediate division is exact decimal math so the final cast is the
// only lossy step, which keeps the round-trip law intact for amounts within
// float64's integer-exact range.
type FloatMajorUnitForConnector struct{}

func (FloatMajorUnitForConnector) Convert(amount MinorUnit, currency Currency) (FloatMajorUnit, error) {
	d := toMajorDecimal(amount, currency)
	value, _ := d.Float64()
	return NewFloatMajorUnit(value), nil
}

func (FloatMajorUnitForConnector) ConvertBack(amount FloatMajorUnit, currency Currency) (MinorUnit, error) {
	if math.IsNaN(amount.Float64()) || math.IsInf(amount.Float64(), 0) {
		return MinorUnit{}, ErrFloatToDecimal
	}
	return fromMajorDecimal(decimal.NewFromFloat(amount.Float64()), currency)
}
