package services

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"travel-server/models"
	"travel-server/store"
)

type fakeThreadStore struct {
	mu      sync.Mutex
	threads []*models.MessageThread
	saves   int
}

func (f *fakeThreadStore) GetThreadByID(_ context.Context, id primitive.ObjectID) (*models.MessageThread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.threads {
		if t.ID == id {
			cp := cloneThread(t)
			return cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeThreadStore) FindThread(_ context.Context, l models.ThreadLookup) (*models.MessageThread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.threads {
		if l.Matches(t) {
			return cloneThread(t), nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeThreadStore) CreateThread(_ context.Context, t *models.MessageThread) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads = append(f.threads, cloneThread(t))
	return nil
}

func (f *fakeThreadStore) SaveThread(_ context.Context, t *models.MessageThread) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.threads {
		if existing.ID == t.ID {
			f.threads[i] = cloneThread(t)
			f.saves++
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeThreadStore) ListThreadsForUser(_ context.Context, userID string) ([]models.MessageThread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MessageThread
	for _, t := range f.threads {
		if t.HasRecipient(userID) {
			out = append(out, *cloneThread(t))
		}
	}
	return out, nil
}

func cloneThread(t *models.MessageThread) *models.MessageThread {
	cp := *t
	cp.Recipients = slices.Clone(t.Recipients)
	cp.Messages = make([]models.Message, len(t.Messages))
	for i, m := range t.Messages {
		m.Recipients = slices.Clone(m.Recipients)
		rs := make(map[string]bool, len(m.ReadStatus))
		for k, v := range m.ReadStatus {
			rs[k] = v
		}
		m.ReadStatus = rs
		cp.Messages[i] = m
	}
	return &cp
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
	reads int
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	f := &fakeUserStore{users: map[primitive.ObjectID]*models.User{}}
	for i := range users {
		u := users[i]
		f.users[u.ID] = &u
	}
	return f
}

func (f *fakeUserStore) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) GetParticipantProfiles(_ context.Context, ids []primitive.ObjectID) ([]models.ParticipantProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ParticipantProfile
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u.Participant())
		}
	}
	return out, nil
}

func (f *fakeUserStore) SearchUsers(_ context.Context, query string, limit int) ([]models.SecureUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SecureUser
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.FirstName+" "+u.LastName+" "+u.Bio), strings.ToLower(query)) {
			out = append(out, u.Secure())
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, id primitive.ObjectID, p models.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.FirstName, u.LastName, u.Bio = p.FirstName, p.LastName, p.Bio
	if p.DeleteImageURL {
		u.ImageURL = ""
	} else if p.ImageURL != "" {
		u.ImageURL = p.ImageURL
	}
	return nil
}

func (f *fakeUserStore) UpdateLocation(_ context.Context, id primitive.ObjectID, loc models.LocationData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Location = &loc
	return nil
}

type fakeEventStore struct {
	mu     sync.Mutex
	events map[primitive.ObjectID]*models.UserEvent
}

func newFakeEventStore(events ...models.UserEvent) *fakeEventStore {
	f := &fakeEventStore{events: map[primitive.ObjectID]*models.UserEvent{}}
	for i := range events {
		e := events[i]
		f.events[e.ID] = &e
	}
	return f
}

func (f *fakeEventStore) CreateEvent(_ context.Context, e *models.UserEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeEventStore) GetEventByID(_ context.Context, id primitive.ObjectID) (*models.UserEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *e
	cp.Participants = slices.Clone(e.Participants)
	return &cp, nil
}

func (f *fakeEventStore) GetEventsByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.UserEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UserEvent
	for _, id := range ids {
		if e, ok := f.events[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) UpdateEventDetails(_ context.Context, id primitive.ObjectID, d models.EventDetails) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return store.ErrNotFound
	}
	e.Title, e.Description, e.ImageURL = d.Title, d.Description, d.ImageURL
	e.StartDate, e.EndDate, e.Categories = d.StartDate, d.EndDate, d.Categories
	if d.Location != nil {
		e.Location = d.Location
	}
	return nil
}

func (f *fakeEventStore) ListEvents(_ context.Context, q models.EventQuery) ([]models.UserEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UserEvent
	for _, e := range f.events {
		if q.ParticipantID != "" && !e.HasParticipant(q.ParticipantID) {
			continue
		}
		switch q.Timeline {
		case models.TimelineUpcoming:
			if e.StartDate.Before(q.Now) {
				continue
			}
		case models.TimelinePast:
			if !e.StartDate.Before(q.Now) {
				continue
			}
		}
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b models.UserEvent) int { return a.StartDate.Compare(b.StartDate) })
	if q.Page > 1 {
		return nil, nil
	}
	return out, nil
}

func (f *fakeEventStore) AddParticipant(_ context.Context, id primitive.ObjectID, p models.EventParticipant) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if e.HasParticipant(p.UserID) {
		return false, nil
	}
	e.Participants = append(e.Participants, p)
	return true, nil
}

func (f *fakeEventStore) RemoveParticipant(_ context.Context, id primitive.ObjectID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return false, store.ErrNotFound
	}
	before := len(e.Participants)
	e.Participants = slices.DeleteFunc(e.Participants, func(p models.EventParticipant) bool {
		return p.UserID == userID
	})
	return len(e.Participants) < before, nil
}

func (f *fakeEventStore) get(id primitive.ObjectID) models.UserEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.events[id]
}

type fakeGeo struct {
	points map[string]models.Coords
	hits   []GeoHit
}

func (g *fakeGeo) IndexEvent(_ context.Context, id string, c models.Coords) error {
	if g.points == nil {
		g.points = map[string]models.Coords{}
	}
	g.points[id] = c
	return nil
}

func (g *fakeGeo) Nearby(_ context.Context, _ models.Coords, _ float64, _ int) ([]GeoHit, error) {
	return g.hits, nil
}

type fakeLocator struct {
	geocoded  *models.LocationData
	timezone  *models.Timezone
	err       error
	geocodes  int
	timezones int
}

func (l *fakeLocator) Geocode(_ context.Context, _ string) (*models.LocationData, error) {
	l.geocodes++
	if l.err != nil {
		return nil, l.err
	}
	cp := *l.geocoded
	return &cp, nil
}

func (l *fakeLocator) Timezone(_ context.Context, _ models.Coords, _ time.Time) (*models.Timezone, error) {
	l.timezones++
	if l.err != nil {
		return nil, l.err
	}
	cp := *l.timezone
	return &cp, nil
}

type fakeCache struct {
	items   map[string]models.SecureUser
	deletes int
}

func (c *fakeCache) Get(_ context.Context, id string) (*models.SecureUser, bool) {
	u, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return &u, true
}

func (c *fakeCache) Set(_ context.Context, u models.SecureUser) {
	if c.items == nil {
		c.items = map[string]models.SecureUser{}
	}
	c.items[u.ID.Hex()] = u
}

func (c *fakeCache) Delete(_ context.Context, id string) {
	delete(c.items, id)
	c.deletes++
}

func testUser(first string) models.User {
	return models.User{
		ID:        primitive.NewObjectID(),
		FirstName: first,
		LastName:  "Tester",
		Email:     first + "@example.com",
		ImageURL:  "https://img.test/" + first,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
