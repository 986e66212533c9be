package store

import (
	"context"

	"travel-server/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ThreadsStore persists MessageThread aggregates. Embedded messages are only
// ever written as part of the whole document.
type ThreadsStore struct {
	coll *mongo.Collection
}

func NewThreadsStore(coll *mongo.Collection) *ThreadsStore {
	return &ThreadsStore{coll: coll}
}

func (s *ThreadsStore) GetThreadByID(ctx context.Context, id primitive.ObjectID) (*models.MessageThread, error) {
	var thread models.MessageThread
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&thread); err != nil {
		return nil, notFound(err)
	}
	return &thread, nil
}

// FindThread returns the oldest thread matching the lookup predicate.
func (s *ThreadsStore) FindThread(ctx context.Context, l models.ThreadLookup) (*models.MessageThread, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdDate", Value: 1}})
	var thread models.MessageThread
	if err := s.coll.FindOne(ctx, ThreadFilter(l), opts).Decode(&thread); err != nil {
		return nil, notFound(err)
	}
	return &thread, nil
}

func (s *ThreadsStore) CreateThread(ctx context.Context, thread *models.MessageThread) error {
	if thread.ID.IsZero() {
		thread.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, thread)
	return err
}

// SaveThread replaces the stored aggregate with thread.
func (s *ThreadsStore) SaveThread(ctx context.Context, thread *models.MessageThread) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": thread.ID}, thread)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ThreadsStore) ListThreadsForUser(ctx context.Context, userID string) ([]models.MessageThread, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedDate", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"recipients": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	threads := []models.MessageThread{}
	if err := cursor.All(ctx, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// ThreadFilter translates a lookup into a Mongo query. Superset matching is
// {originator, recipients: {$all: requested}}; exact matching additionally
// pins the array size to the member count.
func ThreadFilter(l models.ThreadLookup) bson.M {
	if l.Match == models.MatchExact {
		return bson.M{
			"originator": l.Originator,
			"recipients": bson.M{"$all": l.Members, "$size": len(l.Members)},
		}
	}
	return bson.M{
		"originator": l.Originator,
		"recipients": bson.M{"$all": l.Recipients},
	}
}
