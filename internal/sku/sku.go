// Package sku validates and canonicalizes retailer product identifiers.
package sku

import (
	"strings"
)

const (
	ErrRequired = "SKU is required"
	ErrLength   = "SKU must be 6 or 10 digits"
	// ErrPrefix is the prefix error produced with DefaultInternetPrefixes.
	ErrPrefix = "10-digit SKU must start with 100 or 101"
)

// DefaultInternetPrefixes are the leading digits accepted for 10-digit SKUs.
var DefaultInternetPrefixes = []string{"100", "101"}

// Result is the outcome of a validation. Err is empty when Normalized is usable.
type Result struct {
	Normalized string `json:"normalized"`
	Err        string `json:"error,omitempty"`
}

// Valid reports whether the input produced a usable SKU.
func (r Result) Valid() bool {
	return r.Err == ""
}

// Validator checks SKU shape against a configurable 10-digit prefix list.
type Validator struct {
	prefixes  []string
	prefixMsg string
}

// NewValidator builds a Validator. With no prefixes it uses DefaultInternetPrefixes.
func NewValidator(prefixes ...string) *Validator {
	cleaned := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = Digits(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultInternetPrefixes...)
	}
	return &Validator{
		prefixes:  cleaned,
		prefixMsg: "10-digit SKU must start with " + joinOr(cleaned),
	}
}

var defaultValidator = NewValidator()

// Validate checks raw against the default prefix rule.
func Validate(raw string) Result {
	return defaultValidator.Validate(raw)
}

// Validate strips separators from raw and checks the remaining digits.
func (v *Validator) Validate(raw string) Result {
	digits := Digits(raw)
	if digits == "" {
		return Result{Err: ErrRequired}
	}
	switch len(digits) {
	case 6:
		return Result{Normalized: digits}
	case 10:
		for _, p := range v.prefixes {
			if strings.HasPrefix(digits, p) {
				return Result{Normalized: digits}
			}
		}
		return Result{Normalized: digits, Err: v.prefixMsg}
	default:
		return Result{Normalized: digits, Err: ErrLength}
	}
}

// Digits returns only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Mask returns the last four digits of a SKU, the only form allowed into analytics.
func Mask(s string) string {
	d := Digits(s)
	if len(d) <= 4 {
		return d
	}
	return d[len(d)-4:]
}

func joinOr(items []string) string {
	switch len(items) {
	case 1:
		return items[0]
	case 2:
		return items[0] + " or " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", or " + items[len(items)-1]
}
