package password

import "golang.org/x/crypto/bcrypt"

const (
	// MinLength is the backend's minimum password length.
	MinLength = 16
	// Symbols is the fixed set of accepted symbol characters.
	Symbols = "!@#$%^&*"
)

// MeetsPolicy reports whether candidate satisfies the length and character
// class requirements. The classes are checked as bytes on purpose: the
// backend's rule is ASCII-only, and multi-byte runes count toward length
// without satisfying any class.
func MeetsPolicy(candidate string) bool {
	if len(candidate) < MinLength {
		return false
	}

	var lower, upper, digit, symbol bool
	for i := 0; i < len(candidate); i++ {
		ch := candidate[i]
		switch {
		case ch >= 'a' && ch <= 'z':
			lower = true
		case ch >= 'A' && ch <= 'Z':
			upper = true
		case ch >= '0' && ch <= '9':
			digit = true
		default:
			if isSymbol(ch) {
				symbol = true
			}
		}
	}
	return lower && upper && digit && symbol
}

// MatchesHash reports whether candidate is the password behind the stored
// bcrypt hash. A malformed or empty hash never matches.
func MatchesHash(hash, candidate string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

func isSymbol(ch byte) bool {
	for i := 0; i < len(Symbols); i++ {
		if Symbols[i] == ch {
			return true
		}
	}
	return false
}
