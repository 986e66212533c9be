package store

import (
	"context"
	"time"

	"travel-server/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultPageSize = 50

// EventsStore performs event DB operations.
type EventsStore struct {
	coll *mongo.Collection
}

func NewEventsStore(coll *mongo.Collection) *EventsStore {
	return &EventsStore{coll: coll}
}

func (s *EventsStore) CreateEvent(ctx context.Context, event *models.UserEvent) error {
	now := time.Now()
	event.CreatedAt, event.UpdatedAt = now, now
	if event.Participants == nil {
		event.Participants = []models.EventParticipant{}
	}

	res, err := s.coll.InsertOne(ctx, event)
	if err != nil {
		return err
	}
	event.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *EventsStore) GetEventByID(ctx context.Context, id primitive.ObjectID) (*models.UserEvent, error) {
	var event models.UserEvent
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&event); err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

func (s *EventsStore) GetEventsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.UserEvent, error) {
	events := []models.UserEvent{}
	if len(ids) == 0 {
		return events, nil
	}
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateEventDetails overwrites the editable fields. A nil location keeps
// the stored one.
func (s *EventsStore) UpdateEventDetails(ctx context.Context, id primitive.ObjectID, d models.EventDetails) error {
	set := bson.M{
		"title":       d.Title,
		"description": d.Description,
		"imageUrl":    d.ImageURL,
		"startDate":   d.StartDate,
		"endDate":     d.EndDate,
		"categories":  d.Categories,
		"updatedAt":   time.Now(),
	}
	if d.Location != nil {
		set["location"] = d.Location
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *EventsStore) ListEvents(ctx context.Context, q models.EventQuery) ([]models.UserEvent, error) {
	page, size := pageBounds(q.Page, q.PageSize)
	opts := options.Find().
		SetSort(bson.D{{Key: "startDate", Value: 1}}).
		SetSkip(int64((page - 1) * size)).
		SetLimit(int64(size))

	cursor, err := s.coll.Find(ctx, EventFilter(q), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []models.UserEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// AddParticipant pushes p unless the user is already registered. The guard
// and the push are one atomic update, so concurrent registrations for the
// same user cannot both succeed.
func (s *EventsStore) AddParticipant(ctx context.Context, id primitive.ObjectID, p models.EventParticipant) (bool, error) {
	filter := bson.M{"_id": id, "participants.userId": bson.M{"$ne": p.UserID}}
	update := bson.M{
		"$push": bson.M{"participants": p},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	return false, s.exists(ctx, id)
}

// RemoveParticipant pulls the user's record when present.
func (s *EventsStore) RemoveParticipant(ctx context.Context, id primitive.ObjectID, userID string) (bool, error) {
	filter := bson.M{"_id": id, "participants.userId": userID}
	update := bson.M{
		"$pull": bson.M{"participants": bson.M{"userId": userID}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	return false, s.exists(ctx, id)
}

func (s *EventsStore) exists(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// EventFilter builds the query for an event listing.
func EventFilter(q models.EventQuery) bson.M {
	filter := bson.M{}
	if q.ParticipantID != "" {
		filter["participants.userId"] = q.ParticipantID
	}
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	switch q.Timeline {
	case models.TimelineUpcoming:
		filter["startDate"] = bson.M{"$gte": now}
	case models.TimelinePast:
		filter["startDate"] = bson.M{"$lt": now}
	}
	return filter
}

func pageBounds(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	return page, size
}
