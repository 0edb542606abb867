// Package gnu orders version strings the way GNU "sort -V" does.
package gnu

import "strings"

// Compare compares two version strings and returns -1, 0 or 1.
//
// Strings are split into alternating non-digit and digit runs. Non-digit
// runs compare character by character with letters sorting before other
// characters and '~' before everything, including the end of the string.
// Digit runs compare numerically, ignoring leading zeros.
func Compare(a, b string) int {
	for a != "" || b != "" {
		var sa, sb string
		sa, a = span(a, false)
		sb, b = span(b, false)
		if c := compareText(sa, sb); c != 0 {
			return c
		}
		sa, a = span(a, true)
		sb, b = span(b, true)
		if c := compareNumber(sa, sb); c != 0 {
			return c
		}
	}
	return 0
}

// Valid reports whether s is a version Compare orders meaningfully: it
// starts with a digit and holds only letters, digits and ".+-_~".
func Valid(s string) bool {
	if s == "" || !isDigit(s[0]) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && !isAlpha(c) && !strings.ContainsRune(".+-_~", rune(c)) {
			return false
		}
	}
	return true
}

func span(s string, digits bool) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) == digits {
		i++
	}
	return s[:i], s[i:]
}

func compareText(a, b string) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		var ca, cb byte
		if i < len(a) {
			ca = a[i]
		}
		if i < len(b) {
			cb = b[i]
		}
		if oa, ob := order(ca), order(cb); oa != ob {
			return sign(oa - ob)
		}
	}
	return 0
}

func compareNumber(a, b string) int {
	a, b = trimZeros(a), trimZeros(b)
	if len(a) != len(b) {
		return sign(len(a) - len(b))
	}
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			return sign(int(a[i]) - int(b[i]))
		}
	}
	return 0
}

func trimZeros(s string) string {
	for len(s) > 0 && s[0] == '0' {
		s = s[1:]
	}
	return s
}

// order ranks a non-digit character; 0 is the end of the string.
func order(c byte) int {
	switch {
	case c == 0:
		return 0
	case c == '~':
		return -1
	case isAlpha(c):
		return int(c)
	}
	return int(c) + 256
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
