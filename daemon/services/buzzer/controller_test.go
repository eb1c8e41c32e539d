package buzzer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coldwatch/hmi-core/daemon/dto"
)

type fakeDriver struct {
	mu      sync.Mutex
	onCnt   int
	offCnt  int
	failing bool
}

func (d *fakeDriver) On() error  { return d.call(&d.onCnt) }
func (d *fakeDriver) Off() error { return d.call(&d.offCnt) }

func (d *fakeDriver) call(counter *int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return errors.New("simulated gpio failure")
	}
	*counter++
	return nil
}

func (d *fakeDriver) counts() (on, off int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onCnt, d.offCnt
}

type fakeStore struct{ empty bool }

func (s fakeStore) IsEmpty() bool { return s.empty }

type fakeMute struct{ muted bool }

func (m fakeMute) Status() dto.MuteStatus { return dto.MuteStatus{Muted: m.muted} }

func TestTickSilentWhenStoreEmpty(t *testing.T) {
	d := &fakeDriver{}
	c := New(d, fakeStore{empty: true}, fakeMute{muted: false}, true)
	c.tick()
	on, off := d.counts()
	if on != 0 || off != 1 {
		t.Fatalf("expected a single off() call when silent, got on=%d off=%d", on, off)
	}
}

func TestTickSilentWhenMuted(t *testing.T) {
	d := &fakeDriver{}
	c := New(d, fakeStore{empty: false}, fakeMute{muted: true}, true)
	c.tick()
	on, off := d.counts()
	if on != 0 || off != 1 {
		t.Fatalf("expected silent when muted, got on=%d off=%d", on, off)
	}
}

func TestTickBlinksWhenSounding(t *testing.T) {
	d := &fakeDriver{}
	c := New(d, fakeStore{empty: false}, fakeMute{muted: false}, true)
	c.tick()
	c.tick()
	c.tick()
	on, off := d.counts()
	if on == 0 || off == 0 {
		t.Fatalf("expected alternating on/off calls while sounding, got on=%d off=%d", on, off)
	}
}

func TestFaultBudgetLatchesDisabled(t *testing.T) {
	d := &fakeDriver{failing: true}
	c := New(d, fakeStore{empty: false}, fakeMute{muted: false}, true)

	for i := 0; i < 10; i++ {
		c.tick()
	}
	if !c.Disabled() {
		t.Fatal("expected controller to latch disabled after exhausting the fault budget")
	}
}

func TestRunForcesOffOnShutdown(t *testing.T) {
	d := &fakeDriver{}
	c := New(d, fakeStore{empty: false}, fakeMute{muted: false}, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected Run to return promptly after ctx cancellation")
	}

	_, off := d.counts()
	if off == 0 {
		t.Fatal("expected at least one off() call, including the final shutdown off()")
	}
}
