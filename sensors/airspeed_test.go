package sensors

import (
	"testing"
	"time"

	"github.com/openflightbox/airspeedd/sensors/airdata"
)

type stubDriver struct {
	cycles int
	stop   func()
}

func (s *stubDriver) RunCycle() airdata.Schedule {
	s.cycles++
	if s.cycles == 5 {
		s.stop()
	}
	return airdata.Schedule{Delay: time.Millisecond}
}

func (s *stubDriver) SensorOK() bool     { return true }
func (s *stubDriver) ErrorCount() uint64 { return 0 }

func TestReaderRunsCyclesUntilClosed(t *testing.T) {
	r := newReader()
	done := make(chan struct{})
	r.driver = &stubDriver{stop: func() {
		r.Close()
		close(done)
	}}

	go r.run()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquisition loop did not run")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	r := newReader()

	// Flood well past the channel capacity; publish must drop, not stall.
	for i := 0; i < 100; i++ {
		r.publish(airdata.Reading{ErrorCount: uint64(i)})
	}

	if got := len(r.readings); got != cap(r.readings) {
		t.Errorf("buffered readings = %d, want full buffer %d", got, cap(r.readings))
	}
	if first := <-r.Readings(); first.ErrorCount != 0 {
		t.Errorf("oldest reading dropped: got %d, want 0", first.ErrorCount)
	}
}

func TestMonotonicClockProgresses(t *testing.T) {
	clock := NewMonotonic()
	a := clock.Now()
	b := clock.Now()
	if b.Before(a) {
		t.Errorf("clock went backwards: %v then %v", a, b)
	}
	if a.Year() > 1 {
		t.Errorf("timestamps should be offsets from the zero time, got %v", a)
	}
}
