package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"travel-server/logger"
	"travel-server/models"
	"travel-server/utils/errors"
)

const (
	DefaultNearbyRadiusKm = 50.0
	nearbyLimit           = 50
	reindexPageSize       = 200
)

type EventService struct {
	events  EventStore
	users   UserStore
	geo     GeoIndex
	locator Locator
	now     func() time.Time
}

// NewEventService wires the event logic. geo and locator may be nil when
// Redis or the maps integration is disabled.
func NewEventService(events EventStore, users UserStore, geo GeoIndex, locator Locator) *EventService {
	return &EventService{
		events:  events,
		users:   users,
		geo:     geo,
		locator: locator,
		now:     time.Now,
	}
}

// NearbyEvent pairs an event with its distance from the query point.
type NearbyEvent struct {
	Event      models.UserEvent `json:"event"`
	DistanceKm float64          `json:"distanceKm"`
}

// Participants is the response of ListParticipants.
type Participants struct {
	EventID string                      `json:"eventId"`
	Users   []models.ParticipantProfile `json:"users"`
}

// RegisterUserForEvent adds userID to the event's participants. The store
// performs the presence check and the append as one conditional update.
func (s *EventService) RegisterUserForEvent(ctx context.Context, eventID, userID string) error {
	oid, err := parseID(eventID)
	if err != nil {
		return err
	}
	uid, err := parseID(userID)
	if err != nil {
		return err
	}

	added, err := s.events.AddParticipant(ctx, oid, models.EventParticipant{
		UserID:    uid.Hex(),
		Timestamp: s.now(),
	})
	if err != nil {
		if isNotFound(err) {
			eventParticipation.WithLabelValues("register", "not_found").Inc()
			return errors.ErrNotFound.WithMessage("Event %s not found", eventID)
		}
		return dbError(err, "failed to register user")
	}
	if !added {
		eventParticipation.WithLabelValues("register", "conflict").Inc()
		return errors.ErrConflict.WithMessage("User already present")
	}
	eventParticipation.WithLabelValues("register", "ok").Inc()
	logger.Log.Info("user registered for event",
		zap.String("event_id", eventID),
		zap.String("user_id", uid.Hex()))
	return nil
}

// UnregisterUserForEvent removes userID from the event's participants.
func (s *EventService) UnregisterUserForEvent(ctx context.Context, eventID, userID string) error {
	oid, err := parseID(eventID)
	if err != nil {
		return err
	}
	uid, err := parseID(userID)
	if err != nil {
		return err
	}

	removed, err := s.events.RemoveParticipant(ctx, oid, uid.Hex())
	if err != nil {
		if isNotFound(err) {
			eventParticipation.WithLabelValues("unregister", "not_found").Inc()
			return errors.ErrNotFound.WithMessage("Event %s not found", eventID)
		}
		return dbError(err, "failed to unregister user")
	}
	if !removed {
		eventParticipation.WithLabelValues("unregister", "absent").Inc()
		return errors.ErrBadRequest.WithMessage("User %s not found on event %s", userID, eventID)
	}
	eventParticipation.WithLabelValues("unregister", "ok").Inc()
	logger.Log.Info("user unregistered from event",
		zap.String("event_id", eventID),
		zap.String("user_id", uid.Hex()))
	return nil
}

// ListParticipants returns the trimmed profiles of everyone registered.
func (s *EventService) ListParticipants(ctx context.Context, eventID string) (*Participants, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	out := &Participants{EventID: event.ID.Hex(), Users: []models.ParticipantProfile{}}
	ids := make([]primitive.ObjectID, 0, len(event.Participants))
	for _, p := range event.Participants {
		oid, err := primitive.ObjectIDFromHex(p.UserID)
		if err != nil {
			logger.Log.Warn("skipping malformed participant id",
				zap.String("event_id", eventID),
				zap.String("user_id", p.UserID))
			continue
		}
		ids = append(ids, oid)
	}
	if len(ids) == 0 {
		return out, nil
	}

	profiles, err := s.users.GetParticipantProfiles(ctx, ids)
	if err != nil {
		return nil, dbError(err, "failed to load participants")
	}
	if profiles != nil {
		out.Users = profiles
	}
	return out, nil
}

func (s *EventService) GetEvent(ctx context.Context, eventID string) (*models.UserEvent, error) {
	oid, err := parseID(eventID)
	if err != nil {
		return nil, err
	}
	event, err := s.events.GetEventByID(ctx, oid)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.ErrNotFound.WithMessage("Event %s not found", eventID)
		}
		return nil, dbError(err, "failed to load event")
	}
	return event, nil
}

// CreateEvent stores a new event hosted by creatorID.
func (s *EventService) CreateEvent(ctx context.Context, creatorID string, d models.EventDetails) (*models.UserEvent, error) {
	if creatorID == "" {
		return nil, errors.ErrUnauthorized
	}
	if err := resolveLocation(ctx, s.locator, d.Location, d.StartDate); err != nil {
		return nil, err
	}

	now := s.now()
	event := &models.UserEvent{
		ID:             primitive.NewObjectID(),
		Title:          d.Title,
		Description:    d.Description,
		ImageURL:       d.ImageURL,
		EventCreatorID: creatorID,
		Participants:   []models.EventParticipant{},
		Location:       d.Location,
		StartDate:      d.StartDate,
		EndDate:        d.EndDate,
		Categories:     d.Categories,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if event.Categories == nil {
		event.Categories = []string{}
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, dbError(err, "failed to create event")
	}

	s.index(ctx, event.ID.Hex(), event.Location)
	logger.Log.Info("event created",
		zap.String("event_id", event.ID.Hex()),
		zap.String("creator", creatorID))
	return event, nil
}

// UpdateEvent replaces the editable fields. A nil location keeps the stored one.
func (s *EventService) UpdateEvent(ctx context.Context, eventID string, d models.EventDetails) error {
	oid, err := parseID(eventID)
	if err != nil {
		return err
	}
	if err := resolveLocation(ctx, s.locator, d.Location, d.StartDate); err != nil {
		return err
	}
	if d.Categories == nil {
		d.Categories = []string{}
	}

	if err := s.events.UpdateEventDetails(ctx, oid, d); err != nil {
		if isNotFound(err) {
			return errors.ErrNotFound.WithMessage("Event %s not found", eventID)
		}
		return dbError(err, "failed to update event")
	}
	s.index(ctx, eventID, d.Location)
	return nil
}

// ListEvents pages through events in the requested timeline.
func (s *EventService) ListEvents(ctx context.Context, q models.EventQuery) ([]models.UserEvent, error) {
	if q.Timeline == "" {
		q.Timeline = models.TimelineAll
	}
	if !q.Timeline.Valid() {
		return nil, errors.ErrInvalidInput.WithMessage("Unknown timeline %q", q.Timeline)
	}
	if q.Now.IsZero() {
		q.Now = s.now()
	}
	events, err := s.events.ListEvents(ctx, q)
	if err != nil {
		return nil, dbError(err, "failed to list events")
	}
	if events == nil {
		events = []models.UserEvent{}
	}
	return events, nil
}

// ListUserEvents lists the events userID participates in.
func (s *EventService) ListUserEvents(ctx context.Context, userID string, q models.EventQuery) ([]models.UserEvent, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByID(ctx, uid); err != nil {
		if isNotFound(err) {
			return nil, errors.ErrNotFound.WithMessage("User not found")
		}
		return nil, dbError(err, "failed to load user")
	}
	q.ParticipantID = uid.Hex()
	return s.ListEvents(ctx, q)
}

// NearbyEvents returns events within radiusKm of c, closest first.
func (s *EventService) NearbyEvents(ctx context.Context, c models.Coords, radiusKm float64) ([]NearbyEvent, error) {
	if s.geo == nil {
		return nil, errors.ErrUnavailable.WithMessage("Nearby search is not enabled")
	}
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}

	hits, err := s.geo.Nearby(ctx, c, radiusKm, nearbyLimit)
	if err != nil {
		return nil, errors.Wrap(err, "GEO_ERROR", "failed to query nearby events", errors.ErrInternal.Status)
	}
	out := []NearbyEvent{}
	if len(hits) == 0 {
		return out, nil
	}

	ids := make([]primitive.ObjectID, 0, len(hits))
	for _, h := range hits {
		if oid, err := primitive.ObjectIDFromHex(h.ID); err == nil {
			ids = append(ids, oid)
		}
	}
	events, err := s.events.GetEventsByIDs(ctx, ids)
	if err != nil {
		return nil, dbError(err, "failed to load nearby events")
	}
	byID := make(map[string]models.UserEvent, len(events))
	for _, e := range events {
		byID[e.ID.Hex()] = e
	}

	for _, h := range hits {
		e, ok := byID[h.ID]
		if !ok {
			// indexed but deleted from Mongo
			continue
		}
		out = append(out, NearbyEvent{Event: e, DistanceKm: h.DistanceKm})
	}
	return out, nil
}

// RebuildGeoIndex loads every event with coordinates into the geo index.
// Called on startup so the index survives a Redis restart.
func (s *EventService) RebuildGeoIndex(ctx context.Context) (int, error) {
	if s.geo == nil {
		return 0, nil
	}
	indexed := 0
	for page := 1; ; page++ {
		events, err := s.events.ListEvents(ctx, models.EventQuery{
			Timeline: models.TimelineAll,
			Page:     page,
			PageSize: reindexPageSize,
		})
		if err != nil {
			return indexed, err
		}
		for _, e := range events {
			if e.Location == nil || e.Location.Coords.IsZero() {
				continue
			}
			if err := s.geo.IndexEvent(ctx, e.ID.Hex(), e.Location.Coords); err != nil {
				return indexed, err
			}
			indexed++
		}
		if len(events) < reindexPageSize {
			return indexed, nil
		}
	}
}

func (s *EventService) index(ctx context.Context, eventID string, loc *models.LocationData) {
	if s.geo == nil || loc == nil || loc.Coords.IsZero() {
		return
	}
	if err := s.geo.IndexEvent(ctx, eventID, loc.Coords); err != nil {
		// the event is stored; nearby search just misses it until reindex
		logger.Log.Warn("failed to index event location",
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}
