package shortstack

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

// SlugErrorMessage is the validation message shared by every endpoint that
// accepts a slug.
const SlugErrorMessage = "Slug can only contain letters, numbers, dots, hyphens, and underscores."

// IndexSlug is the reserved sentinel looked up for a bare request on the
// shortener domain. It deliberately fails the slug grammar so no admin-created
// slug can collide with it.
const IndexSlug = "_<index"

var slugRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// IsValidSlug reports whether s matches the slug grammar ^[a-zA-Z0-9._-]+$.
func IsValidSlug(s string) bool {
	return slugRegex.MatchString(s)
}

const (
	alphanumChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	slugChars     = alphanumChars + ".-_"
)

// RandomString returns a random alphanumeric string of the given length,
// used for correlation ids.
func RandomString(length int) string {
	return randomFrom(alphanumChars, length)
}

// RandomSlug returns a random string of the given length drawn from the slug
// alphabet.
func RandomSlug(length int) string {
	return randomFrom(slugChars, length)
}

func randomFrom(alphabet string, length int) string {
	var b strings.Builder
	b.Grow(length)
	maxIdx := big.NewInt(int64(len(alphabet)))
	for range length {
		n, err := rand.Int(rand.Reader, maxIdx)
		if err != nil {
			// crypto/rand only fails when the platform entropy source is
			// broken; fall back to the first character rather than panic.
			b.WriteByte(alphabet[0])
			continue
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String()
}

var dupSlashes = regexp.MustCompile(`/+`)

// NormalizeKey collapses repeated slashes in an object key.
func NormalizeKey(key string) string {
	return dupSlashes.ReplaceAllString(key, "/")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLikePattern escapes SQL LIKE wildcards in s so user input matches
// literally.
func EscapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}
