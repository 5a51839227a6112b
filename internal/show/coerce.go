package show

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Flex is a float64 that survives sloppy payloads: JSON numbers, quoted
// numbers, null, and garbage all decode without error, with anything
// non-numeric coerced to zero.
type Flex float64

func (f *Flex) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if s[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			*f = 0
			return nil
		}
		*f = Flex(CoerceNumber(raw))
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*f = 0
		return nil
	}
	*f = Flex(v)
	return nil
}

// CoerceNumber parses s as a number, returning 0 for anything unparseable.
func CoerceNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseGuess parses a tiebreaker guess as entered. Unlike CoerceNumber it
// distinguishes "no usable number" (nil) from an actual zero guess.
func ParseGuess(raw string) *float64 {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
