// Package maps resolves addresses and time zones through the Google Maps
// Geocoding and Time Zone APIs.
package maps

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	gmaps "googlemaps.github.io/maps"

	"travel-server/models"
)

// Client resolves addresses to geocoded locations and coordinates to time zones.
type Client struct {
	api *gmaps.Client
}

// NewClient builds a client for apiKey. Extra options are passed to the
// underlying maps client (gmaps.WithBaseURL in tests).
func NewClient(apiKey string, opts ...gmaps.ClientOption) (*Client, error) {
	opts = append([]gmaps.ClientOption{
		gmaps.WithAPIKey(apiKey),
		gmaps.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
	}, opts...)
	api, err := gmaps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &Client{api: api}, nil
}

// Geocode resolves a free-form address to its first geocoder match.
func (c *Client) Geocode(ctx context.Context, address string) (*models.LocationData, error) {
	results, err := c.api.Geocode(ctx, &gmaps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("geocode %q: no results", address)
	}
	loc := locationFromResult(results[0])
	return &loc, nil
}

// Timezone looks up the zone in effect at coords on the given instant.
func (c *Client) Timezone(ctx context.Context, coords models.Coords, at time.Time) (*models.Timezone, error) {
	res, err := c.api.Timezone(ctx, &gmaps.TimezoneRequest{
		Location:  &gmaps.LatLng{Lat: coords.Lat, Lng: coords.Lng},
		Timestamp: at,
	})
	if err != nil {
		return nil, fmt.Errorf("timezone lookup: %w", err)
	}
	return &models.Timezone{ID: res.TimeZoneID, Name: res.TimeZoneName}, nil
}

// locationFromResult picks country, state and city out of the address
// components. City falls back through locality, sublocality, country and
// political, in component order.
func locationFromResult(r gmaps.GeocodingResult) models.LocationData {
	country := findComponent(r.AddressComponents, "country")
	state := findComponent(r.AddressComponents, "administrative_area_level_1")
	city := findComponent(r.AddressComponents, "locality", "sublocality_level_1", "sublocality", "country", "political")

	return models.LocationData{
		Country:          country,
		State:            state,
		City:             city,
		FormattedAddress: r.FormattedAddress,
		PlaceID:          r.PlaceID,
		Coords:           models.Coords{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
	}
}

func findComponent(components []gmaps.AddressComponent, types ...string) string {
	for _, c := range components {
		for _, t := range types {
			if slices.Contains(c.Types, t) {
				return c.LongName
			}
		}
	}
	return ""
}
