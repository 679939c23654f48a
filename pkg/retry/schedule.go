package retry

import "time"

// Schedule is a fixed, escalating list of waits indexed by attempt.
// Index 0 is the wait before the first attempt.
type Schedule []time.Duration

var (
	// ProductionSchedule is used for webhook deliveries: 0s, 1m, 5m, 30m, 2h
	ProductionSchedule = Schedule{0, time.Minute, 5 * time.Minute, 30 * time.Minute, 2 * time.Hour}

	// TestSchedule is the accelerated schedule used in test mode: 0s, 5s, 10s, 15s, 20s
	TestSchedule = Schedule{0, 5 * time.Second, 10 * time.Second, 15 * time.Second, 20 * time.Second}
)

// SelectSchedule returns TestSchedule when test is set, ProductionSchedule otherwise
func SelectSchedule(test bool) Schedule {
	if test {
		return TestSchedule
	}
	return ProductionSchedule
}

// Delay returns the wait for the given attempt index. Indices past the end
// clamp to the last entry, negative indices are treated as 0.
func (s Schedule) Delay(attempt int) time.Duration {
	if len(s) == 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(s) {
		attempt = len(s) - 1
	}
	return s[attempt]
}

// Attempts is the number of explicit steps in the schedule
func (s Schedule) Attempts() int {
	return len(s)
}

// Max returns the longest interval
func (s Schedule) Max() time.Duration {
	return s.Delay(len(s) - 1)
}
