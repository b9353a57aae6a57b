package text

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// stripUnderscores removes the `_` digit-group separators the text format
// allows inside numeric literals (e.g. "1_000_000").
func stripUnderscores(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	return strings.ReplaceAll(s, "_", "")
}

// parseI64 parses a signed or unsigned decimal/hex integer literal into its
// 64-bit unsigned bit pattern, truncating as the caller's target width
// requires.
func parseI64(lit string) (uint64, error) {
	s := stripUnderscores(lit)
	neg := false
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		// Fall back to signed parsing for values like "-1" at width-sensitive
		// call sites that already know their target is signed range.
		iv, ierr := strconv.ParseInt(lit, 0, 64)
		if ierr != nil {
			return 0, fmt.Errorf("invalid integer literal %q: %w", lit, err)
		}
		return uint64(iv), nil
	}
	if neg {
		return uint64(-int64(v)), nil
	}
	return v, nil
}

// parseFloat parses a decimal or hex float literal (with optional e/p
// exponent) plus the special forms `nan`, `nan:0xHHH...` and `inf`.
func parseFloat(lit string, bits int) (float64, error) {
	s := stripUnderscores(lit)
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")

	switch body {
	case "inf":
		if neg {
			return math.Inf(-1), nil
		}
		return math.Inf(1), nil
	}
	if strings.HasPrefix(body, "nan") {
		payload := uint64(0)
		if bits == 32 {
			payload = 0x400000
		} else {
			payload = 0x8000000000000
		}
		if strings.HasPrefix(body, "nan:0x") {
			hexPart := body[len("nan:0x"):]
			v, err := strconv.ParseUint(hexPart, 16, 64)
			if err == nil {
				payload = v
			}
		}
		var bits64 uint64
		if bits == 32 {
			exp := uint64(0xFF) << 23
			bits64 = exp | payload
		} else {
			exp := uint64(0x7FF) << 52
			bits64 = exp | payload
		}
		if neg {
			bits64 |= 1 << 63
		}
		if bits == 32 {
			return float64(math.Float32frombits(uint32(bits64))), nil
		}
		return math.Float64frombits(bits64), nil
	}

	v, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid float literal %q: %w", lit, err)
	}
	return v, nil
}
