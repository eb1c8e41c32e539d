package store

import (
	"testing"

	"github.com/coldwatch/hmi-core/daemon/constants"
	"github.com/coldwatch/hmi-core/daemon/domain"
	"github.com/coldwatch/hmi-core/daemon/dto"
)

type fakeMute struct{ cleared int }

func (f *fakeMute) ForceClear() { f.cleared++ }

func TestUpsertNewAlertPublishesAndClearsMute(t *testing.T) {
	hub := domain.NewEventBus(4)
	mute := &fakeMute{}
	s := New(hub, mute)

	ch := hub.SubTopics(constants.TopicAlertAdded)
	alert := dto.Alert{ID: "mqtt:1", AlertType: dto.AlertTypeTempUp, Device: "A"}

	if changed := s.Upsert(alert); !changed {
		t.Fatal("expected Upsert to report a change for a new id")
	}
	if mute.cleared != 1 {
		t.Fatalf("expected ForceClear to be called once, got %d", mute.cleared)
	}

	select {
	case msg := <-ch:
		got, ok := msg.(dto.Alert)
		if !ok || got.ID != alert.ID {
			t.Fatalf("unexpected published value: %#v", msg)
		}
	default:
		t.Fatal("expected a published event on TopicAlertAdded")
	}
}

func TestUpsertIdenticalAlertStillPublishesAndClearsMute(t *testing.T) {
	hub := domain.NewEventBus(4)
	mute := &fakeMute{}
	s := New(hub, mute)
	alert := dto.Alert{ID: "mqtt:1", AlertType: dto.AlertTypeTempUp, Device: "A"}

	ch := hub.SubTopics(constants.TopicAlertAdded)

	s.Upsert(alert)
	<-ch // drain the first added event

	if ok := s.Upsert(alert); !ok {
		t.Fatal("expected re-upserting an identical alert to report ok")
	}
	if mute.cleared != 2 {
		t.Fatalf("expected ForceClear on every upsert call, got %d", mute.cleared)
	}

	select {
	case msg := <-ch:
		got, ok := msg.(dto.Alert)
		if !ok || got.ID != alert.ID {
			t.Fatalf("unexpected published value: %#v", msg)
		}
	default:
		t.Fatal("expected a second published event on TopicAlertAdded for the identical re-upsert")
	}
}

func TestRemoveUnknownIDIsNoop(t *testing.T) {
	s := New(nil, nil)
	if removed := s.Remove("does-not-exist"); removed {
		t.Fatal("expected Remove of an unknown id to report false")
	}
}

func TestRemoveKnownIDPublishes(t *testing.T) {
	hub := domain.NewEventBus(4)
	s := New(hub, nil)
	alert := dto.Alert{ID: "mqtt:1"}
	s.Upsert(alert)

	ch := hub.SubTopics(constants.TopicAlertRemoved)
	if removed := s.Remove(alert.ID); !removed {
		t.Fatal("expected Remove of a known id to report true")
	}

	select {
	case msg := <-ch:
		got, ok := msg.(dto.AlertRemoved)
		if !ok || got.ID != alert.ID {
			t.Fatalf("unexpected published value: %#v", msg)
		}
	default:
		t.Fatal("expected a published event on TopicAlertRemoved")
	}
}

func TestSnapshotOrdersNewestDateTimeFirst(t *testing.T) {
	s := New(nil, nil)
	s.Upsert(dto.Alert{ID: "mqtt:1", DateTime: "30/07/2026 08:00:00"})
	s.Upsert(dto.Alert{ID: "mqtt:2", DateTime: "30/07/2026 10:00:00"})
	s.Upsert(dto.Alert{ID: "mqtt:3", DateTime: "30/07/2026 09:00:00"})

	snap := s.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(snap))
	}
	gotIDs := []string{snap[0].ID, snap[1].ID, snap[2].ID}
	wantIDs := []string{"mqtt:2", "mqtt:3", "mqtt:1"}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Fatalf("expected newest-first order %v, got %v", wantIDs, gotIDs)
		}
	}
}

func TestSnapshotTiebreaksOnIDAscending(t *testing.T) {
	s := New(nil, nil)
	s.Upsert(dto.Alert{ID: "mqtt:2", DateTime: "30/07/2026 08:00:00"})
	s.Upsert(dto.Alert{ID: "mqtt:1", DateTime: "30/07/2026 08:00:00"})

	snap := s.Snapshot()
	if len(snap) != 2 || snap[0].ID != "mqtt:1" || snap[1].ID != "mqtt:2" {
		t.Fatalf("expected id-ascending tiebreak, got %#v", snap)
	}
}

func TestSnapshotIsDefensiveCopy(t *testing.T) {
	s := New(nil, nil)
	s.Upsert(dto.Alert{ID: "mqtt:1", DateTime: "30/07/2026 08:00:00"})

	snap := s.Snapshot()
	snap[0].ID = "mutated"
	if s.Snapshot()[0].ID != "mqtt:1" {
		t.Fatal("mutating a snapshot must not affect the store")
	}
}

func TestIsEmpty(t *testing.T) {
	s := New(nil, nil)
	if !s.IsEmpty() {
		t.Fatal("expected a new store to be empty")
	}
	s.Upsert(dto.Alert{ID: "mqtt:1"})
	if s.IsEmpty() {
		t.Fatal("expected store to be non-empty after an upsert")
	}
	s.Remove("mqtt:1")
	if !s.IsEmpty() {
		t.Fatal("expected store to be empty after removing its only alert")
	}
}
