package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"travel-server/logger"
	"travel-server/models"
	"travel-server/utils/errors"
)

// resolveLocation fills in what the client left out: coordinates and address
// parts from the formatted address, then the timezone from the coordinates.
// A nil locator leaves loc untouched.
func resolveLocation(ctx context.Context, locator Locator, loc *models.LocationData, at time.Time) error {
	if locator == nil || loc == nil {
		return nil
	}

	if loc.Coords.IsZero() && loc.FormattedAddress != "" {
		geo, err := locator.Geocode(ctx, loc.FormattedAddress)
		if err != nil {
			logger.Log.Warn("geocoding failed",
				zap.String("address", loc.FormattedAddress),
				zap.Error(err))
			return errors.ErrBadGateway.WithMessage("Failed to geocode address")
		}
		mergeLocation(loc, geo)
	}

	if loc.Timezone.ID == "" && !loc.Coords.IsZero() {
		tz, err := locator.Timezone(ctx, loc.Coords, at)
		if err != nil {
			logger.Log.Warn("timezone lookup failed", zap.Error(err))
			return errors.ErrBadGateway.WithMessage("Failed to resolve timezone")
		}
		loc.Timezone = *tz
	}
	return nil
}

// mergeLocation copies geocoded fields into loc without overwriting values
// the client supplied.
func mergeLocation(loc, geo *models.LocationData) {
	loc.Coords = geo.Coords
	if loc.PlaceID == "" {
		loc.PlaceID = geo.PlaceID
	}
	if loc.Country == "" {
		loc.Country = geo.Country
	}
	if loc.State == "" {
		loc.State = geo.State
	}
	if loc.City == "" {
		loc.City = geo.City
	}
	if geo.FormattedAddress != "" {
		loc.FormattedAddress = geo.FormattedAddress
	}
}
