package money

import (
	"database/sql/driver"
	"fmt"
	"strconv"
)

// MinorUnit is the amount type the core works in: an integer count of the
// currency's smallest unit (cents for USD, yen for JPY, fils for BHD).
type MinorUnit struct {
	value int64
}

// NewMinorUnit creates a minor unit amount from an i64 value
func NewMinorUnit(value int64) MinorUnit {
	return MinorUnit{value: value}
}

// ZeroMinorUnit returns a zero amount
func ZeroMinorUnit() MinorUnit {
	return MinorUnit{}
}

// Int64 returns the raw minor unit value
func (m MinorUnit) Int64() int64 {
	return m.value
}

// Add returns the sum of two amounts. Overflow is a programmer error;
// callers validate ranges before arithmetic.
func (m MinorUnit) Add(other MinorUnit) MinorUnit {
	return MinorUnit{value: m.value + other.value}
}

// Sub returns the difference of two amounts
func (m MinorUnit) Sub(other MinorUnit) MinorUnit {
	return MinorUnit{value: m.value - other.value}
}

// IsZero returns true if the amount is zero
func (m MinorUnit) IsZero() bool {
	return m.value == 0
}

func (m MinorUnit) String() string {
	return fmt.Sprintf("%d", m.value)
}

// Value implements driver.Valuer; the amount persists as a BIGINT column
func (m MinorUnit) Value() (driver.Value, error) {
	return m.value, nil
}

// Scan implements sql.Scanner
func (m *MinorUnit) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		m.value = v
		return nil
	case []byte:
		parsed, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("cannot scan %q into MinorUnit: %w", string(v), err)
		}
		m.value = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into MinorUnit", src)
	}
}

// MarshalJSON renders the amount as a bare integer
func (m MinorUnit) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.value, 10)), nil
}

// UnmarshalJSON parses a bare integer amount
func (m *MinorUnit) UnmarshalJSON(data []byte) error {
	parsed, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("cannot unmarshal %q into MinorUnit: %w", string(data), err)
	}
	m.value = parsed
	return nil
}
