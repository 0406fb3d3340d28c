package clock

import "time"

// System is the wall-clock implementation of port.Clock.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}
