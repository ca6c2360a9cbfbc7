package suggest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// keySeparator is the ASCII unit separator, which never appears in model text fields.
const keySeparator = "\x1f"

// Key is the normalized identity of a suggestion: name, country, era and category.
type Key string

// KeySet is a set of canonical keys.
type KeySet map[Key]struct{}

// Has reports whether k is in the set.
func (s KeySet) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// Add inserts k.
func (s KeySet) Add(k Key) {
	s[k] = struct{}{}
}

// Normalize is the field normalization used for dedup: Unicode NFC, trimmed, lowercased.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// CanonicalKey builds the dedup key. An absent era is keyed as the empty string.
func CanonicalKey(name, country, era, category string) Key {
	return Key(strings.Join([]string{
		Normalize(name),
		Normalize(country),
		Normalize(era),
		Normalize(category),
	}, keySeparator))
}

// Hash returns the hex SHA-256 digest of the key.
func (k Key) Hash() string {
	return hashString(string(k))
}

// CanonicalHash is the stable hash of a suggestion's canonical key.
func CanonicalHash(name, country, era, category string) string {
	return CanonicalKey(name, country, era, category).Hash()
}

// PromptHash is the stable hash of a rendered prompt.
func PromptHash(prompt string) string {
	return hashString(prompt)
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
