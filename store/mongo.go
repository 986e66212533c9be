// Package store holds the MongoDB-backed repositories for users, events and
// message threads.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ErrNotFound is returned when a lookup by id matches no document.
var ErrNotFound = errors.New("document not found")

// ErrDuplicate is returned when an insert violates a unique index.
var ErrDuplicate = errors.New("duplicate document")

// Client wraps mongo.Client and exposes collections.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database string) (*Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{client: client, db: client.Database(database)}, nil
}

func (c *Client) UsersCollection() *mongo.Collection   { return c.db.Collection("users") }
func (c *Client) EventsCollection() *mongo.Collection  { return c.db.Collection("userevents") }
func (c *Client) ThreadsCollection() *mongo.Collection { return c.db.Collection("messagethreads") }

// Ping is used by the health check.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateIndexes ensures the indexes the queries rely on.
func (c *Client) CreateIndexes(ctx context.Context) error {
	_, err := c.UsersCollection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "firstName", Value: "text"},
				{Key: "lastName", Value: "text"},
				{Key: "bio", Value: "text"},
			},
			Options: options.Index().SetName("user_text_search"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	_, err = c.EventsCollection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "startDate", Value: 1}}},
		{Keys: bson.D{{Key: "participants.userId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create event indexes: %w", err)
	}

	_, err = c.ThreadsCollection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipients", Value: 1}}},
		{Keys: bson.D{{Key: "originator", Value: 1}, {Key: "recipients", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create thread indexes: %w", err)
	}
	return nil
}

// ParseID converts a 24-hex string into an ObjectID.
func ParseID(id string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(id)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
