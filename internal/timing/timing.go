// Package timing formats job durations for the worker and CLI logs.
package timing

import (
	"fmt"
	"time"
)

// Clock renders d as hh:mm:ss. Hours are not wrapped at 24.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// Stopwatch measures one job.
type Stopwatch struct {
	start time.Time
}

func Start() Stopwatch {
	return Stopwatch{start: time.Now()}
}

func (s Stopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}

func (s Stopwatch) String() string {
	return Clock(s.Elapsed())
}
