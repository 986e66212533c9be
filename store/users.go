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

// participantProjection is the trimmed user shape listed on events.
var participantProjection = bson.M{"_id": 1, "firstName": 1, "lastName": 1, "imageUrl": 1}

// searchProjection hides credentials and the precise location from search hits.
var searchProjection = bson.M{
	"password":                  0,
	"email":                     0,
	"isAdmin":                   0,
	"location.formattedAddress": 0,
	"location.timezone":         0,
	"location.coords":           0,
	"location.place_id":         0,
}

// UsersStore performs user DB operations.
type UsersStore struct {
	coll *mongo.Collection
}

func NewUsersStore(coll *mongo.Collection) *UsersStore {
	return &UsersStore{coll: coll}
}

func (s *UsersStore) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	res, err := s.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *UsersStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *UsersStore) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UsersStore) GetParticipantProfiles(ctx context.Context, ids []primitive.ObjectID) ([]models.ParticipantProfile, error) {
	profiles := []models.ParticipantProfile{}
	if len(ids) == 0 {
		return profiles, nil
	}
	opts := options.Find().SetProjection(participantProjection)
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// SearchUsers runs a full-text query over names and bio, best matches first.
func (s *UsersStore) SearchUsers(ctx context.Context, query string, limit int) ([]models.SecureUser, error) {
	if limit < 1 {
		limit = defaultPageSize
	}
	opts := options.Find().
		SetProjection(searchProjection).
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, bson.M{"$text": bson.M{"$search": query}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.SecureUser{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile patches the editable profile fields.
func (s *UsersStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.ProfileUpdate) error {
	set := bson.M{
		"firstName": p.FirstName,
		"lastName":  p.LastName,
		"bio":       p.Bio,
		"updatedAt": time.Now(),
	}
	update := bson.M{"$set": set}
	switch {
	case p.DeleteImageURL:
		update["$unset"] = bson.M{"imageUrl": ""}
	case p.ImageURL != "":
		set["imageUrl"] = p.ImageURL
	}
	return s.updateOne(ctx, id, update)
}

func (s *UsersStore) UpdateLocation(ctx context.Context, id primitive.ObjectID, loc models.LocationData) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"location": loc, "updatedAt": time.Now()}})
}

func (s *UsersStore) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
