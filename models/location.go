package models

// Timezone is the IANA zone id plus its display name.
type Timezone struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

type Coords struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// IsZero reports whether no coordinates were supplied.
func (c Coords) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// Valid reports whether the coordinates are within WGS84 bounds.
func (c Coords) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// LocationData is a geocoded address shared by users and events.
type LocationData struct {
	Country          string   `json:"country" bson:"country"`
	State            string   `json:"state" bson:"state"`
	City             string   `json:"city" bson:"city"`
	FormattedAddress string   `json:"formattedAddress" bson:"formattedAddress"`
	Timezone         Timezone `json:"timezone" bson:"timezone"`
	Coords           Coords   `json:"coords" bson:"coords"`
	PlaceID          string   `json:"place_id" bson:"place_id"`
}
