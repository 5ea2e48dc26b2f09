package slug

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given name. Accented Latin
// characters common in flower and cultivar names are transliterated to ASCII.
//
// Examples:
//   - "Café au Lait Dahlia" → "cafe-au-lait-dahlia"
//   - "Crème de la Crème Rose" → "creme-de-la-creme-rose"
//   - "Hello   World!" → "hello-world"
func Generate(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))

	// Transliterate accented Latin characters to ASCII.
	replacer := strings.NewReplacer(
		"à", "a", "á", "a", "â", "a", "ä", "a", "å", "a",
		"è", "e", "é", "e", "ê", "e", "ë", "e",
		"ì", "i", "í", "i", "î", "i", "ï", "i",
		"ò", "o", "ó", "o", "ô", "o", "ö", "o", "ø", "o",
		"ù", "u", "ú", "u", "û", "u", "ü", "u",
		"ç", "c", "ñ", "n", "ß", "ss",
	)
	slug = replacer.Replace(slug)

	// Replace any non-alphanumeric characters with hyphens
	slug = slugRegexp.ReplaceAllString(slug, "-")

	// Trim leading and trailing hyphens
	slug = strings.Trim(slug, "-")

	// Collapse consecutive hyphens into single hyphens
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}

	return slug
}

// GenerateWithSuffix creates a slug with a short random suffix appended, for
// resolving collisions between products with the same name.
func GenerateWithSuffix(name string) string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return Generate(name)
	}
	return Generate(name) + "-" + hex.EncodeToString(buf)
}
