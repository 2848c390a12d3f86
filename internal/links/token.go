package links

import (
	"crypto/sha256"
	"math/big"
)

// Alphabet is the base62 symbol order. Issued tokens depend on it.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// FullTokenLength is the longest base62 encoding of a SHA-256 digest.
const FullTokenLength = 43

var base = big.NewInt(int64(len(Alphabet)))

// Derive returns base62(sha256(url)), unpadded.
func Derive(url CanonicalURL) Token {
	sum := sha256.Sum256([]byte(url))

	return Token(encode(new(big.Int).SetBytes(sum[:])))
}

func encode(n *big.Int) string {
	if n.Sign() == 0 {
		return Alphabet[:1]
	}

	buf := make([]byte, 0, FullTokenLength)
	mod := new(big.Int)

	for n.Sign() > 0 {
		n.DivMod(n, base, mod)
		buf = append(buf, Alphabet[mod.Int64()])
	}

	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf)
}

// ValidToken reports whether s uses only alphabet symbols and fits the given bounds.
func ValidToken(s string, minLen, maxLen int) bool {
	if len(s) < minLen || len(s) > maxLen {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}

	return true
}
