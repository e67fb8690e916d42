package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var decimalRe = regexp.MustCompile(`\d+\.\d+`)

// ParseError reports a change string that does not match <sign><digits>.<digits>[k]%.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse change %q: %s", e.Raw, e.Reason)
}

// ParseChange converts a formatted change such as "+12.50%" or "-1.00k%" into
// a signed percentage. A 'k' just before the final character scales by 1000.
func ParseChange(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, &ParseError{Raw: raw, Reason: "empty value"}
	}

	sign := 1.0
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, &ParseError{Raw: raw, Reason: "missing sign"}
	}

	match := decimalRe.FindString(s)
	if match == "" {
		return 0, &ParseError{Raw: raw, Reason: "no decimal number"}
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, &ParseError{Raw: raw, Reason: err.Error()}
	}

	if len(s) >= 2 && s[len(s)-2] == 'k' {
		v *= 1000
	}
	return sign * v, nil
}

// FormatChange renders v the way the source table does, switching to the
// 'k' form once the magnitude reaches 1000.
func FormatChange(v float64) string {
	sign := "+"
	if v < 0 || (v == 0 && math.Signbit(v)) {
		sign = "-"
	}
	mag := math.Abs(v)
	if mag >= 1000 {
		return fmt.Sprintf("%s%.2fk%%", sign, mag/1000)
	}
	return fmt.Sprintf("%s%.2f%%", sign, mag)
}
