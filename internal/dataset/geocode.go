package dataset

import (
	"context"
	"errors"
	"sync"

	"github.com/kelvins/geocoder"
)

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, city, country string) (lat, lon float64, err error)
}

var errNoGeocodeResult = errors.New("geocoder returned no coordinates")

// GoogleGeocoder uses the Google Geocoding API through kelvins/geocoder.
type GoogleGeocoder struct {
	apiKey string
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey}
}

// The library keeps its key in a package variable.
var geocoderMu sync.Mutex

func (g *GoogleGeocoder) Geocode(ctx context.Context, city, country string) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	geocoderMu.Lock()
	defer geocoderMu.Unlock()

	geocoder.ApiKey = g.apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
	if err != nil {
		return 0, 0, err
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return 0, 0, errNoGeocodeResult
	}
	return loc.Latitude, loc.Longitude, nil
}
