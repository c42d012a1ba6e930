package validate

import (
	"regexp"
	"strconv"
	"strings"
)

const MaxQty = 50

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	// sizes look like "IND 7.5" or "8"
	reSize  = regexp.MustCompile(`^[A-Za-z0-9 .]{1,16}$`)
	reColor = regexp.MustCompile(`^[A-Za-z0-9 _-]{1,32}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Qty parses a form quantity, defaulting to 1 and clamping to MaxQty.
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return ClampQty(n)
}

// ClampQty caps a quantity at MaxQty; values below 1 are left alone so that
// callers can treat them as removal.
func ClampQty(n int) int {
	if n > MaxQty {
		return MaxQty
	} // clamp to avoid abuse
	return n
}

// ID validates a simple resource identifier (product/category/item ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Size validates an optional shoe size; empty means no size.
func Size(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s == "" || reSize.MatchString(s)
}

// Color validates an optional color variant id; empty means no color.
func Color(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s == "" || reColor.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 40 {
		return "", false
	}
	return s, true
}

// Password enforces length and character-class rules.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
