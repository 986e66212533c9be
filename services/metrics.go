package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	threadsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travel_threads_created_total",
		Help: "Message threads created.",
	})
	messagesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travel_messages_posted_total",
		Help: "Messages appended to threads.",
	})
	eventParticipation = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travel_event_participation_total",
		Help: "Event registration changes by action and outcome.",
	}, []string{"action", "outcome"})
	userCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travel_user_cache_lookups_total",
		Help: "User cache lookups by result.",
	}, []string{"result"})
)
