package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Timeline windows events by startDate relative to now.
type Timeline string

const (
	TimelineUpcoming Timeline = "upcoming"
	TimelinePast     Timeline = "past"
	TimelineAll      Timeline = "all"
)

func (t Timeline) Valid() bool {
	switch t {
	case TimelineUpcoming, TimelinePast, TimelineAll:
		return true
	}
	return false
}

type EventParticipant struct {
	UserID    string    `json:"userId" bson:"userId"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

type UserEvent struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title          string             `json:"title" bson:"title"`
	Description    string             `json:"description" bson:"description"`
	ImageURL       string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	EventCreatorID string             `json:"eventCreatorId" bson:"eventCreatorId"`
	Participants   []EventParticipant `json:"participants" bson:"participants"`
	Location       *LocationData      `json:"location,omitempty" bson:"location,omitempty"`
	StartDate      time.Time          `json:"startDate" bson:"startDate"`
	EndDate        time.Time          `json:"endDate" bson:"endDate"`
	Categories     []string           `json:"categories" bson:"categories"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// HasParticipant reports whether userID is registered for the event.
func (e *UserEvent) HasParticipant(userID string) bool {
	for _, p := range e.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// EventQuery selects events for listing.
type EventQuery struct {
	Timeline      Timeline
	ParticipantID string
	Page          int
	PageSize      int
	Now           time.Time
}

// EventDetails holds the host-editable fields of an event.
type EventDetails struct {
	Title       string
	Description string
	ImageURL    string
	StartDate   time.Time
	EndDate     time.Time
	Categories  []string
	Location    *LocationData
}
