package dbsource

import (
	"testing"
	"time"

	"github.com/coldwatch/hmi-core/daemon/dto"
)

type fakeStore struct {
	upserts []dto.Alert
	removes []string
}

func (s *fakeStore) Upsert(a dto.Alert) bool { s.upserts = append(s.upserts, a); return true }
func (s *fakeStore) Remove(id string) bool   { s.removes = append(s.removes, id); return true }

func TestValidateStatusAcceptsSixBinaryValues(t *testing.T) {
	status, ok := validateStatus([]int{0, 1, 0, 1, 0, 1})
	if !ok {
		t.Fatal("expected a valid 6-slot binary status to validate")
	}
	if status != [6]int{0, 1, 0, 1, 0, 1} {
		t.Fatalf("unexpected status: %v", status)
	}
}

func TestValidateStatusRejectsWrongLength(t *testing.T) {
	if _, ok := validateStatus([]int{0, 1, 0}); ok {
		t.Fatal("expected a short status to be rejected")
	}
}

func TestValidateStatusRejectsNonBinaryValue(t *testing.T) {
	if _, ok := validateStatus([]int{0, 1, 2, 0, 0, 0}); ok {
		t.Fatal("expected a non-binary value to be rejected")
	}
}

func TestFirstPayloadIsPureBaselineNoUpserts(t *testing.T) {
	s := &fakeStore{}
	c := &Client{store: s}

	c.applyDiff([6]int{1, 0, 1, 0, 0, 0}, time.Now())

	if len(s.upserts) != 0 || len(s.removes) != 0 {
		t.Fatalf("expected the first payload to seed lastSeen without any store mutation, got upserts=%v removes=%v", s.upserts, s.removes)
	}
	if c.lastSeen != [6]int{1, 0, 1, 0, 0, 0} {
		t.Fatalf("expected lastSeen to be seeded from the first payload, got %v", c.lastSeen)
	}
}

func TestSubsequentTransitionsUpsertAndRemove(t *testing.T) {
	s := &fakeStore{}
	c := &Client{store: s}

	c.applyDiff([6]int{0, 0, 0, 0, 0, 0}, time.Now()) // baseline, no mutation
	c.applyDiff([6]int{1, 0, 0, 0, 0, 0}, time.Now()) // slot 0 rises

	if len(s.upserts) != 1 || s.upserts[0].ID != "db:0" {
		t.Fatalf("expected a single upsert for db:0, got %v", s.upserts)
	}

	c.applyDiff([6]int{0, 0, 0, 0, 0, 0}, time.Now()) // slot 0 falls

	if len(s.removes) != 1 || s.removes[0] != "db:0" {
		t.Fatalf("expected a single remove for db:0, got %v", s.removes)
	}
}

func TestUnchangedSlotIsNoop(t *testing.T) {
	s := &fakeStore{}
	c := &Client{store: s}

	c.applyDiff([6]int{1, 1, 1, 1, 1, 1}, time.Now())
	c.applyDiff([6]int{1, 1, 1, 1, 1, 1}, time.Now())

	if len(s.upserts) != 0 || len(s.removes) != 0 {
		t.Fatalf("expected no mutation for an unchanged status vector, got upserts=%v removes=%v", s.upserts, s.removes)
	}
}
