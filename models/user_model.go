package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FirstName string             `json:"firstName" bson:"firstName"`
	LastName  string             `json:"lastName" bson:"lastName"`
	Email     string             `json:"email" bson:"email"`
	Password  string             `json:"-" bson:"password"`
	Bio       string             `json:"bio,omitempty" bson:"bio,omitempty"`
	ImageURL  string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Location  *LocationData      `json:"location,omitempty" bson:"location,omitempty"`
	IsAdmin   bool               `json:"isAdmin" bson:"isAdmin"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// SecureUser is the public view of a user: no credentials, e-mail or admin flag.
type SecureUser struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	FirstName string             `json:"firstName" bson:"firstName"`
	LastName  string             `json:"lastName" bson:"lastName"`
	Bio       string             `json:"bio,omitempty" bson:"bio,omitempty"`
	ImageURL  string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Location  *LocationData      `json:"location,omitempty" bson:"location,omitempty"`
}

// ParticipantProfile is the trimmed projection returned for event participants.
type ParticipantProfile struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	FirstName string             `json:"firstName" bson:"firstName"`
	LastName  string             `json:"lastName" bson:"lastName"`
	ImageURL  string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
}

func (u User) Secure() SecureUser {
	return SecureUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		ImageURL:  u.ImageURL,
		Location:  u.Location,
	}
}

func (u User) Participant() ParticipantProfile {
	return ParticipantProfile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		ImageURL:  u.ImageURL,
	}
}

// ProfileUpdate carries a profile patch. An empty ImageURL keeps the current
// image; DeleteImageURL removes it.
type ProfileUpdate struct {
	FirstName      string
	LastName       string
	Bio            string
	ImageURL       string
	DeleteImageURL bool
}
