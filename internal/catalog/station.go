package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Station is a named geographic point the resolver can match against.
// Stations are immutable once loaded into a Catalog.
type Station struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Key is the normalized search key derived from Name.
	Key string `json:"-"`
}

// Normalize renders s as a search key: lowercase, diacritics stripped,
// punctuation dropped (dashes separate words), letters/digits/spaces only,
// whitespace collapsed.
func Normalize(s string) string {
	t := norm.NFD.String(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(t))
	for _, r := range t {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from NFD
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r), unicode.Is(unicode.Pd, r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// IDFromName derives a stable station id from a display name.
func IDFromName(name string) string {
	return strings.ReplaceAll(Normalize(name), " ", "-")
}

// NewStation builds a Station with its search key filled in. An empty id is
// derived from the name.
func NewStation(id, name, country string, lat, lon float64) Station {
	if id == "" {
		id = IDFromName(name)
	}
	return Station{
		ID:        id,
		Name:      strings.TrimSpace(name),
		Country:   country,
		Latitude:  lat,
		Longitude: lon,
		Key:       Normalize(name),
	}
}
