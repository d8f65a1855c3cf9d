package sensors

import (
	"time"

	humanize "github.com/dustin/go-humanize"
)

// Monotonic is the drivers' time source. Timestamps are offsets from
// boot rather than wall time, so RTC-less boards stepping their clock
// after NTP sync never corrupt the measurement stream.
type Monotonic struct {
	start time.Time
}

func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Now returns the elapsed time since the clock was created as an offset
// from the zero time, with microsecond-or-better resolution.
func (m *Monotonic) Now() time.Time {
	return time.Time{}.Add(time.Since(m.start))
}

// Uptime returns how long the clock has been running.
func (m *Monotonic) Uptime() time.Duration {
	return time.Since(m.start)
}

// HumanizeTime renders a timestamp from Now's timebase relative to the
// present, for status reporting.
func (m *Monotonic) HumanizeTime(t time.Time) string {
	return humanize.RelTime(t, m.Now(), "ago", "from now")
}
