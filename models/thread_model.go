package models

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is owned by its thread and has no identity outside it.
type Message struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	ParentThreadID string             `json:"parentThreadId" bson:"parentThreadId"`
	Sender         string             `json:"sender" bson:"sender"`
	Body           string             `json:"body" bson:"body"`
	Timestamp      time.Time          `json:"timestamp" bson:"timestamp"`
	Recipients     []string           `json:"recipients" bson:"recipients"`
	ReadStatus     map[string]bool    `json:"readStatus" bson:"readStatus"`
}

// MessageThread is the aggregate root; messages are persisted with it.
type MessageThread struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Originator  string             `json:"originator" bson:"originator"`
	Recipients  []string           `json:"recipients" bson:"recipients"`
	CreatedDate time.Time          `json:"createdDate" bson:"createdDate"`
	UpdatedDate time.Time          `json:"updatedDate" bson:"updatedDate"`
	Messages    []Message          `json:"messages" bson:"messages"`
}

type ThreadState string

const (
	ThreadActive   ThreadState = "active"
	ThreadOrphaned ThreadState = "orphaned"
)

// ThreadMatch selects how an existing thread is found for a new conversation.
type ThreadMatch string

const (
	// MatchSuperset finds a thread from the originator whose recipients
	// include every requested recipient (extra members allowed).
	MatchSuperset ThreadMatch = "superset"
	// MatchExact requires recipients to equal requested recipients plus originator.
	MatchExact ThreadMatch = "exact"
)

// ThreadLookup describes the thread a new conversation would land in.
type ThreadLookup struct {
	Originator string
	Recipients []string
	Members    []string
	Match      ThreadMatch
}

// Matches applies the lookup predicate to t.
func (l ThreadLookup) Matches(t *MessageThread) bool {
	if t.Originator != l.Originator {
		return false
	}
	want := l.Recipients
	if l.Match == MatchExact {
		want = l.Members
		if len(t.Recipients) != len(want) {
			return false
		}
	}
	for _, id := range want {
		if !slices.Contains(t.Recipients, id) {
			return false
		}
	}
	return true
}

func (t *MessageThread) HasRecipient(userID string) bool {
	return slices.Contains(t.Recipients, userID)
}

func (t *MessageThread) State() ThreadState {
	if len(t.Recipients) >= 2 {
		return ThreadActive
	}
	return ThreadOrphaned
}

// NewMessage builds a message addressed to the current thread members.
// The sender starts read, everyone else unread.
func (t *MessageThread) NewMessage(sender, body string, at time.Time) Message {
	recipients := slices.Clone(t.Recipients)
	readStatus := make(map[string]bool, len(recipients)+1)
	for _, id := range recipients {
		readStatus[id] = false
	}
	readStatus[sender] = true

	return Message{
		ID:             primitive.NewObjectID(),
		ParentThreadID: t.ID.Hex(),
		Sender:         sender,
		Body:           body,
		Timestamp:      at,
		Recipients:     recipients,
		ReadStatus:     readStatus,
	}
}

// Append adds m and bumps UpdatedDate.
func (t *MessageThread) Append(m Message) {
	t.Messages = append(t.Messages, m)
	t.UpdatedDate = m.Timestamp
}

// MarkRead flags every message addressed to userID as read and returns the
// number of flags that changed.
func (t *MessageThread) MarkRead(userID string) int {
	changed := 0
	for i := range t.Messages {
		m := &t.Messages[i]
		if !slices.Contains(m.Recipients, userID) {
			continue
		}
		if m.ReadStatus == nil {
			m.ReadStatus = map[string]bool{}
		}
		if !m.ReadStatus[userID] {
			m.ReadStatus[userID] = true
			changed++
		}
	}
	return changed
}

// RemoveRecipient drops userID from the member list. Message history keeps it.
func (t *MessageThread) RemoveRecipient(userID string) bool {
	idx := slices.Index(t.Recipients, userID)
	if idx < 0 {
		return false
	}
	t.Recipients = slices.Delete(t.Recipients, idx, idx+1)
	return true
}

// HasUnread reports whether any message still shows userID as unread.
func (t *MessageThread) HasUnread(userID string) bool {
	for _, m := range t.Messages {
		if read, ok := m.ReadStatus[userID]; ok && !read {
			return true
		}
	}
	return false
}
