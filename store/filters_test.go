package store

import (
	"testing"
	"time"

	"travel-server/models"

	"go.mongodb.org/mongo-driver/bson"
)

func TestThreadFilterSuperset(t *testing.T) {
	f := ThreadFilter(models.ThreadLookup{
		Originator: "u1",
		Recipients: []string{"u2"},
		Members:    []string{"u2", "u1"},
		Match:      models.MatchSuperset,
	})
	if f["originator"] != "u1" {
		t.Fatalf("unexpected originator clause %v", f["originator"])
	}
	rec := f["recipients"].(bson.M)
	if _, ok := rec["$size"]; ok {
		t.Fatal("superset filter must not pin the size")
	}
	if all := rec["$all"].([]string); len(all) != 1 || all[0] != "u2" {
		t.Fatalf("unexpected $all %v", all)
	}
}

func TestThreadFilterExact(t *testing.T) {
	f := ThreadFilter(models.ThreadLookup{
		Originator: "u1",
		Recipients: []string{"u2"},
		Members:    []string{"u2", "u1"},
		Match:      models.MatchExact,
	})
	rec := f["recipients"].(bson.M)
	if rec["$size"] != 2 {
		t.Fatalf("expected size 2, got %v", rec["$size"])
	}
	if all := rec["$all"].([]string); len(all) != 2 {
		t.Fatalf("exact filter should list every member, got %v", all)
	}
}

func TestEventFilter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	all := EventFilter(models.EventQuery{Timeline: models.TimelineAll, Now: now})
	if len(all) != 0 {
		t.Fatalf("all timeline should not filter, got %v", all)
	}

	up := EventFilter(models.EventQuery{Timeline: models.TimelineUpcoming, ParticipantID: "u1", Now: now})
	if up["participants.userId"] != "u1" {
		t.Fatalf("missing participant clause: %v", up)
	}
	if up["startDate"].(bson.M)["$gte"] != now {
		t.Fatalf("unexpected upcoming clause %v", up["startDate"])
	}

	past := EventFilter(models.EventQuery{Timeline: models.TimelinePast, Now: now})
	if past["startDate"].(bson.M)["$lt"] != now {
		t.Fatalf("unexpected past clause %v", past["startDate"])
	}
}

func TestPageBounds(t *testing.T) {
	if p, s := pageBounds(0, 0); p != 1 || s != defaultPageSize {
		t.Fatalf("unexpected defaults %d %d", p, s)
	}
	if p, s := pageBounds(3, 10); p != 3 || s != 10 {
		t.Fatalf("unexpected bounds %d %d", p, s)
	}
}
