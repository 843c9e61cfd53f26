package symbol

import (
	"errors"
	"strings"
)

// Class tells the validator which symbol space the user is querying.
type Class int

const (
	ClassStock Class = iota
	ClassCrypto
)

const (
	minCryptoLen = 2
	maxSymbolLen = 10
)

var (
	ErrEmpty         = errors.New("symbol is empty")
	ErrTooLong       = errors.New("symbol is too long")
	ErrTooShort      = errors.New("symbol is too short")
	ErrNotAlphabetic = errors.New("symbol must contain only letters")
)

// Validate normalizes a raw user-supplied symbol into its canonical form.
// Stocks canonicalize to an uppercase ticker, crypto to a BASE/USD pair.
func Validate(raw string, class Class) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrEmpty
	}

	if class == ClassCrypto {
		return validateCrypto(s)
	}

	if len(s) > maxSymbolLen {
		return "", ErrTooLong
	}
	if !isAlpha(s) {
		return "", ErrNotAlphabetic
	}
	return s, nil
}

func validateCrypto(s string) (string, error) {
	// Full-name lookup first: "BITCOIN" -> "BTC".
	if base, ok := cryptoNames[s]; ok {
		return base + "/USD", nil
	}

	// Accept pre-built pairs and strip known quote suffixes so that
	// "BTCUSD", "BTC/USD" and "BTC-USDT" all canonicalize the same way.
	base := s
	for _, sep := range []string{"/", "-"} {
		if i := strings.Index(base, sep); i > 0 {
			base = base[:i]
			break
		}
	}
	for _, suffix := range []string{"USDT", "USD"} {
		if trimmed := strings.TrimSuffix(base, suffix); trimmed != base && len(trimmed) >= minCryptoLen {
			base = trimmed
			break
		}
	}

	if len(base) < minCryptoLen {
		return "", ErrTooShort
	}
	if len(base) > maxSymbolLen {
		return "", ErrTooLong
	}
	if !isAlpha(base) {
		return "", ErrNotAlphabetic
	}
	return base + "/USD", nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
