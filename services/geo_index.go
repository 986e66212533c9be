package services

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"travel-server/logger"
	"travel-server/models"
)

const eventsGeoKey = "events:geo"

// GeoHit is one result of a radius query.
type GeoHit struct {
	ID         string
	DistanceKm float64
}

type GeoIndex interface {
	IndexEvent(ctx context.Context, eventID string, c models.Coords) error
	Nearby(ctx context.Context, c models.Coords, radiusKm float64, limit int) ([]GeoHit, error)
}

// RedisGeoIndex keeps event coordinates in a single Redis geo set.
type RedisGeoIndex struct {
	client *redis.Client
	key    string
}

func NewRedisGeoIndex(client *redis.Client) *RedisGeoIndex {
	return &RedisGeoIndex{client: client, key: eventsGeoKey}
}

func (g *RedisGeoIndex) IndexEvent(ctx context.Context, eventID string, c models.Coords) error {
	err := g.client.GeoAdd(ctx, g.key, &redis.GeoLocation{
		Name:      eventID,
		Longitude: c.Lng,
		Latitude:  c.Lat,
	}).Err()
	if err != nil {
		return fmt.Errorf("geoadd %s: %w", eventID, err)
	}
	return nil
}

// Nearby returns the indexed events within radiusKm of c, closest first.
func (g *RedisGeoIndex) Nearby(ctx context.Context, c models.Coords, radiusKm float64, limit int) ([]GeoHit, error) {
	results, err := g.client.GeoRadius(ctx, g.key, c.Lng, c.Lat, &redis.GeoRadiusQuery{
		Radius:   radiusKm,
		Unit:     "km",
		WithDist: true,
		Sort:     "ASC",
		Count:    limit,
	}).Result()
	if err != nil {
		logger.Log.Error("redis georadius failed", zap.Error(err))
		return nil, err
	}

	hits := make([]GeoHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, GeoHit{ID: r.Name, DistanceKm: r.Dist})
	}
	return hits, nil
}
