// Package core holds the entity model shared by storage, the ledger
// reconciler and the read-side aggregators.
//
// This file contains money parsing and formatting. Amounts are carried as
// int64 paise everywhere; rupees exist only at the API and export edges.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToPaise converts a decimal rupee string to paise with half-up
// rounding on the third decimal place. Both dot and comma separators are
// accepted. Negative and zero amounts are rejected.
func ParseDecimalToPaise(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	paise := iv*100 + frac
	if paise <= 0 {
		return 0, ErrInvalidAmount
	}
	return paise, nil
}

// RupeesFromPaise converts paise to a rupee float for JSON payloads and
// exports. Use paise for calculations.
func RupeesFromPaise(paise int64) float64 {
	return float64(paise) / 100.0
}

// PaiseFromRupees converts a rupee float (as received in JSON bodies) to
// paise with half-up rounding.
func PaiseFromRupees(r float64) int64 {
	if r >= 0 {
		return int64(r*100 + 0.5)
	}
	return int64(r*100 - 0.5)
}

// Rupees returns the amount in rupees for display.
func (m Money) Rupees() float64 {
	return RupeesFromPaise(m.Paise)
}

// FormatRupees renders paise as a plain "1234.50" rupee string.
func FormatRupees(paise int64) string {
	neg := paise < 0
	if neg {
		paise = -paise
	}
	s := strconv.FormatInt(paise/100, 10) + "." + pad2(paise%100)
	if neg {
		return "-" + s
	}
	return s
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
