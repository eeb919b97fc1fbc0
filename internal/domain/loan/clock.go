package loan

import "time"

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
