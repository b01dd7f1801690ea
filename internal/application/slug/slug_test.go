package slug

import (
	"strings"
	"testing"

	"marketplace-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Home Cleaning Pro":        "home-cleaning-pro",
		"  Home   Cleaning  Pro  ": "home-cleaning-pro",
		"Café Déjà-Vu!":            "cafe-deja-vu",
		"Jazz & Wine @ 8pm":        "jazz-wine-8pm",
		"São Paulo Loft #2":        "sao-paulo-loft-2",
		"---":                      Fallback,
		"":                         Fallback,
		"東京":                       Fallback,
		"Joe's Pizza":              "joes-pizza",
		"U.S.A. Tours":             "usa-tours",
		"Straße Loft":              "strasse-loft",
		"Søren's Café":             "sorens-cafe",
		"Rock/Pop  -  Night":       "rockpop-night",
		"Tab\tSeparated":           "tab-separated",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestNormalize_IdenticalTitlesShareBase(t *testing.T) {
	assert.Equal(t, Normalize("Home Cleaning Pro"), Normalize("home cleaning PRO!"))
}

func TestNormalize_TruncatesLongTitles(t *testing.T) {
	got := Normalize(strings.Repeat("word ", 40))
	assert.LessOrEqual(t, len(got), MaxBaseLength)
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestResolve_BaseFree(t *testing.T) {
	r := NewResolver(10)
	got, err := r.Resolve("home-cleaning-pro", NewSet().Has)
	require.NoError(t, err)
	assert.Equal(t, "home-cleaning-pro", got)
}

func TestResolve_SuffixesInOrder(t *testing.T) {
	r := NewResolver(10)
	got, err := r.Resolve("home-cleaning-pro", NewSet("home-cleaning-pro").Has)
	require.NoError(t, err)
	assert.Equal(t, "home-cleaning-pro-1", got)

	got, err = r.Resolve("home-cleaning-pro", NewSet("home-cleaning-pro", "home-cleaning-pro-1", "home-cleaning-pro-3").Has)
	require.NoError(t, err)
	assert.Equal(t, "home-cleaning-pro-2", got)
}

func TestResolve_Exhausted(t *testing.T) {
	r := NewResolver(2)
	_, err := r.Resolve("x", NewSet("x", "x-1", "x-2").Has)
	assert.ErrorIs(t, err, domain.ErrSlugExhausted)
}

func TestNewResolver_DefaultBound(t *testing.T) {
	assert.Equal(t, DefaultMaxSuffix, NewResolver(0).MaxSuffix)
}
