package slug

import (
	"strconv"
	"strings"
	"unicode"

	"marketplace-backend/internal/domain"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// Fallback is used when a title has no slug-safe characters at all.
	Fallback = "listing"
	// MaxBaseLength keeps slugs well under the column width once a suffix is added.
	MaxBaseLength    = 80
	DefaultMaxSuffix = 1000
)

// Letters NFD cannot decompose into a base letter plus marks.
var transliterations = strings.NewReplacer(
	"ß", "ss", "ø", "o", "Ø", "o", "æ", "ae", "Æ", "ae", "œ", "oe", "Œ", "oe",
	"đ", "d", "Đ", "d", "ł", "l", "Ł", "l", "þ", "th", "Þ", "th", "ı", "i",
)

// Normalize folds diacritics, lowercases, strips every character that is not a letter, digit,
// space or hyphen, then collapses runs of spaces and hyphens to one hyphen.
// "Café  Déjà-Vu!" -> "cafe-deja-vu", "Joe's Pizza" -> "joes-pizza".
func Normalize(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, transliterations.Replace(title))
	if err != nil {
		folded = title
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingHyphen = true
		}
	}

	out := b.String()
	if len(out) > MaxBaseLength {
		out = strings.TrimRight(out[:MaxBaseLength], "-")
	}
	if out == "" {
		return Fallback
	}
	return out
}

// Resolver picks the first free candidate among base, base-1, base-2, ... base-MaxSuffix.
type Resolver struct {
	MaxSuffix int
}

func NewResolver(maxSuffix int) *Resolver {
	if maxSuffix <= 0 {
		maxSuffix = DefaultMaxSuffix
	}
	return &Resolver{MaxSuffix: maxSuffix}
}

// Resolve returns base if free, else the lowest free numeric suffix.
// taken must report every slug already used in the listing type's partition.
func (r *Resolver) Resolve(base string, taken func(string) bool) (string, error) {
	if !taken(base) {
		return base, nil
	}
	for i := 1; i <= r.MaxSuffix; i++ {
		candidate := Candidate(base, i)
		if !taken(candidate) {
			return candidate, nil
		}
	}
	return "", domain.ErrSlugExhausted
}

// Candidate is the n-th suffixed form of base; n == 0 is base itself.
func Candidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// Set is a taken-slug lookup built from a query result.
type Set map[string]struct{}

func NewSet(slugs ...string) Set {
	s := make(Set, len(slugs))
	for _, v := range slugs {
		s[v] = struct{}{}
	}
	return s
}

func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}
