package services

import (
	"context"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"travel-server/logger"
	"travel-server/models"
	"travel-server/utils/errors"
)

type ThreadService struct {
	threads ThreadStore
	users   UserStore
	match   models.ThreadMatch
	now     func() time.Time
}

func NewThreadService(threads ThreadStore, users UserStore, match models.ThreadMatch) *ThreadService {
	if match == "" {
		match = models.MatchSuperset
	}
	return &ThreadService{
		threads: threads,
		users:   users,
		match:   match,
		now:     time.Now,
	}
}

// CreateThreadAndPostMessage posts body from initiator to recipients, reusing
// the thread that matches the configured predicate or starting a new one.
func (s *ThreadService) CreateThreadAndPostMessage(ctx context.Context, initiator string, recipients []string, body string) (*models.MessageThread, error) {
	initiatorID, err := parseID(initiator)
	if err != nil {
		return nil, err
	}
	initiator = initiatorID.Hex()
	recipientIDs := make([]primitive.ObjectID, 0, len(recipients))
	for _, r := range recipients {
		oid, err := parseID(r)
		if err != nil {
			return nil, err
		}
		recipientIDs = append(recipientIDs, oid)
	}

	if _, err := s.users.GetUserByID(ctx, initiatorID); err != nil {
		if isNotFound(err) {
			return nil, errors.ErrNotFound.WithMessage("Initiator not found")
		}
		return nil, dbError(err, "failed to load initiator")
	}

	found, err := s.users.GetUsersByIDs(ctx, recipientIDs)
	if err != nil {
		return nil, dbError(err, "failed to load recipients")
	}
	resolved := resolveRecipients(recipientIDs, found)
	if len(resolved) == 0 {
		return nil, errors.ErrNotFound.WithMessage("Recipients not found")
	}

	// The lookup runs on the ids as given; unknown ids still take part, so a
	// request naming one never lands in a thread without it.
	given := uniqueHex(recipientIDs)
	lookup := models.ThreadLookup{
		Originator: initiator,
		Recipients: given,
		Members:    members(given, initiator),
		Match:      s.match,
	}

	now := s.now()
	thread, err := s.threads.FindThread(ctx, lookup)
	switch {
	case err == nil:
		thread.Append(thread.NewMessage(initiator, body, now))
		if err := s.threads.SaveThread(ctx, thread); err != nil {
			return nil, dbError(err, "failed to save thread")
		}
		messagesPosted.Inc()
		logger.Log.Debug("appended to existing thread",
			zap.String("thread_id", thread.ID.Hex()),
			zap.String("sender", initiator))
		return thread, nil
	case !isNotFound(err):
		return nil, dbError(err, "failed to look up thread")
	}

	thread = &models.MessageThread{
		ID:          primitive.NewObjectID(),
		Originator:  initiator,
		Recipients:  members(resolved, initiator),
		CreatedDate: now,
		UpdatedDate: now,
		Messages:    []models.Message{},
	}
	thread.Append(thread.NewMessage(initiator, body, now))
	if err := s.threads.CreateThread(ctx, thread); err != nil {
		return nil, dbError(err, "failed to create thread")
	}
	threadsCreated.Inc()
	messagesPosted.Inc()
	logger.Log.Info("thread created",
		zap.String("thread_id", thread.ID.Hex()),
		zap.String("originator", initiator),
		zap.Int("recipients", len(thread.Recipients)))
	return thread, nil
}

// PostMessageToThread appends content from senderID to an existing thread.
func (s *ThreadService) PostMessageToThread(ctx context.Context, threadID, senderID, content string) (*models.MessageThread, error) {
	if senderID == "" {
		return nil, errors.ErrUnauthorized
	}
	thread, err := s.loadThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	thread.Append(thread.NewMessage(senderID, content, s.now()))
	if err := s.threads.SaveThread(ctx, thread); err != nil {
		return nil, dbError(err, "failed to save thread")
	}
	messagesPosted.Inc()
	return thread, nil
}

// MarkThreadAsRead flags every message addressed to userID as read.
// The thread is only written when a flag actually changed.
func (s *ThreadService) MarkThreadAsRead(ctx context.Context, threadID, userID string) (*models.MessageThread, error) {
	if userID == "" {
		return nil, errors.ErrUnauthorized
	}
	thread, err := s.loadThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	if thread.MarkRead(userID) == 0 {
		return thread, nil
	}
	thread.UpdatedDate = s.now()
	if err := s.threads.SaveThread(ctx, thread); err != nil {
		return nil, dbError(err, "failed to save thread")
	}
	return thread, nil
}

// RemoveRecipientFromThread takes userID out of the thread's members.
func (s *ThreadService) RemoveRecipientFromThread(ctx context.Context, threadID, userID string) (*models.MessageThread, error) {
	if userID == "" {
		return nil, errors.ErrUnauthorized
	}
	thread, err := s.loadThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	if !thread.RemoveRecipient(userID) {
		return nil, errors.ErrBadRequest.WithMessage("User %s is not a member of thread %s", userID, threadID)
	}
	thread.UpdatedDate = s.now()
	if err := s.threads.SaveThread(ctx, thread); err != nil {
		return nil, dbError(err, "failed to save thread")
	}
	logger.Log.Info("recipient removed from thread",
		zap.String("thread_id", threadID),
		zap.String("user_id", userID),
		zap.String("state", string(thread.State())))
	return thread, nil
}

// ListThreadsForUser returns the threads userID belongs to, most recently
// updated first. With unreadOnly only threads holding an unread message remain.
func (s *ThreadService) ListThreadsForUser(ctx context.Context, userID string, unreadOnly bool) ([]models.MessageThread, error) {
	if userID == "" {
		return nil, errors.ErrUnauthorized
	}
	threads, err := s.threads.ListThreadsForUser(ctx, userID)
	if err != nil {
		return nil, dbError(err, "failed to list threads")
	}
	if threads == nil {
		threads = []models.MessageThread{}
	}
	if unreadOnly {
		threads = slices.DeleteFunc(threads, func(t models.MessageThread) bool {
			return !t.HasUnread(userID)
		})
	}
	return threads, nil
}

func (s *ThreadService) loadThread(ctx context.Context, threadID string) (*models.MessageThread, error) {
	oid, err := parseID(threadID)
	if err != nil {
		return nil, err
	}
	thread, err := s.threads.GetThreadByID(ctx, oid)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.ErrNotFound.WithMessage("Thread %s not found", threadID)
		}
		return nil, dbError(err, "failed to load thread")
	}
	return thread, nil
}

// resolveRecipients keeps the requested ids that exist, in request order and
// without duplicates.
func resolveRecipients(requested []primitive.ObjectID, found []models.User) []string {
	exists := make(map[primitive.ObjectID]bool, len(found))
	for _, u := range found {
		exists[u.ID] = true
	}
	out := make([]string, 0, len(requested))
	for _, oid := range requested {
		if id := oid.Hex(); exists[oid] && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func uniqueHex(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, oid := range ids {
		if id := oid.Hex(); !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// members is recipients plus the originator, originator last.
func members(recipients []string, originator string) []string {
	out := make([]string, 0, len(recipients)+1)
	for _, id := range recipients {
		if id != originator {
			out = append(out, id)
		}
	}
	return append(out, originator)
}
