package sequence

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// InvalidInputError reports the first token of an input that is not a
// number. It is the only error a sequence surfaces to users.
type InvalidInputError struct {
	Token string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%q is not a valid number", e.Token)
}

// Parse splits a comma-separated list of numbers. Surrounding whitespace
// is ignored; empty tokens, NaN and infinities are rejected.
func Parse(input string) ([]float64, error) {
	parts := strings.Split(input, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		tok := strings.TrimSpace(p)
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &InvalidInputError{Token: tok}
		}
		out = append(out, v)
	}
	return out, nil
}

// Delay bounds.
const (
	MinDelay     = 100 * time.Millisecond
	MaxDelay     = 5000 * time.Millisecond
	DefaultDelay = time.Second
)

// ClampDelay bounds d to [MinDelay, MaxDelay].
func ClampDelay(d time.Duration) time.Duration {
	return min(max(d, MinDelay), MaxDelay)
}

// FormatNumber renders v the way a JavaScript number prints: integers
// without a fraction, no trailing zeros, and exponent notation only for
// very large or very small magnitudes.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(v, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
