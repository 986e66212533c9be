package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gmaps "googlemaps.github.io/maps"

	"travel-server/models"
)

func TestLocationFromResult(t *testing.T) {
	r := gmaps.GeocodingResult{
		FormattedAddress: "123 Fake St.",
		PlaceID:          "mockPlaceId",
		AddressComponents: []gmaps.AddressComponent{
			{Types: []string{"mockType", "country"}, LongName: "Canada"},
			{Types: []string{"mockType"}, LongName: "mockLongName"},
			{Types: []string{"administrative_area_level_1"}, LongName: "mockLongNameState"},
			{Types: []string{"locality"}, LongName: "mockLocality"},
		},
	}
	r.Geometry.Location.Lat = 1
	r.Geometry.Location.Lng = 1

	got := locationFromResult(r)
	want := models.LocationData{
		Country:          "Canada",
		State:            "mockLongNameState",
		City:             "Canada",
		FormattedAddress: "123 Fake St.",
		PlaceID:          "mockPlaceId",
		Coords:           models.Coords{Lat: 1, Lng: 1},
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLocationFromPoliticalComponent(t *testing.T) {
	r := gmaps.GeocodingResult{AddressComponents: []gmaps.AddressComponent{
		{Types: []string{"political"}, LongName: "mockLongNamePolitical"},
	}}
	if got := locationFromResult(r).City; got != "mockLongNamePolitical" {
		t.Fatalf("expected political fallback for city, got %q", got)
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient("k", gmaps.WithBaseURL(baseURL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestTimezoneRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/maps/api/timezone/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("location") != "1,2" || q.Get("timestamp") != "1234567890" || q.Get("key") != "k" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"status":"OK","timeZoneId":"America/Toronto","timeZoneName":"Eastern Standard Time"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	tz, err := c.Timezone(context.Background(), models.Coords{Lat: 1, Lng: 2}, time.Unix(1234567890, 0))
	if err != nil {
		t.Fatalf("Timezone failed: %v", err)
	}
	if tz.ID != "America/Toronto" || tz.Name != "Eastern Standard Time" {
		t.Fatalf("unexpected timezone %+v", tz)
	}
}

func TestGeocodeZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.Geocode(context.Background(), "nowhere"); err == nil {
		t.Fatal("expected error for zero results")
	}
}

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/maps/api/geocode/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("address") != "1 Main St" {
			t.Errorf("unexpected address %q", r.URL.Query().Get("address"))
		}
		w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"1 Main St, Springfield","place_id":"p1",
			"geometry":{"location":{"lat":45.5,"lng":-73.5}},
			"address_components":[{"long_name":"Springfield","types":["locality","political"]},{"long_name":"USA","types":["country","political"]}]}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	loc, err := c.Geocode(context.Background(), "1 Main St")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}
	if loc.City != "Springfield" || loc.Country != "USA" || loc.Coords.Lat != 45.5 {
		t.Fatalf("unexpected location %+v", loc)
	}
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.Timezone(context.Background(), models.Coords{Lat: 1, Lng: 1}, time.Now()); err == nil {
		t.Fatal("expected error on http 500")
	}
}
