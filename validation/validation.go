package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

// OneOf flags a non-empty value outside allowed.
func OneOf(field, value string, allowed []string, v Violations) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "invalid_choice"
}

func MaxLen(field, value string, maxLen int, v Violations) {
	if utf8.RuneCountInString(value) > maxLen {
		v[field] = "too_long"
	}
}

// NonNegative flags money amounts below zero.
func NonNegative(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v[field] = "must_not_be_negative"
	}
}

// Phone checks a non-empty number against the numbering plan of region
// (ISO 3166 code, used when the number has no +country prefix).
func Phone(field, value, region string, v Violations) {
	if strings.TrimSpace(value) == "" {
		return
	}
	p, err := libphonenumber.Parse(value, region)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		v[field] = "invalid_phone"
	}
}
