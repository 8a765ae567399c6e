package imaging

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// German umlauts keep their two-letter form instead of a bare base letter.
var umlauts = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
	"ß", "ss",
)

// stripMarks removes combining marks left over after NFD decomposition.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ObjectName builds a storage object name whose lexicographic order equals
// capture-time order: a zero-padded UTC timestamp prefix, a random
// disambiguator, and a sanitized copy of the original base name.
func ObjectName(originalName string, captured time.Time) (string, error) {
	suffix, err := uuid.NewV4()
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(path.Ext(originalName))
	base := sanitizeBase(strings.TrimSuffix(path.Base(originalName), path.Ext(originalName)))

	return fmt.Sprintf("%s_%s_%s%s",
		captured.UTC().Format("20060102_150405"),
		strings.Split(suffix.String(), "-")[0],
		base, ext), nil
}

// sanitizeBase transliterates diacritics and drops characters that break URLs.
func sanitizeBase(base string) string {
	base = umlauts.Replace(base)
	if out, _, err := transform.String(stripMarks, base); err == nil {
		base = out
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case r == ' ':
			b.WriteRune('-')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "photo"
	}
	return b.String()
}
