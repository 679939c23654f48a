package retry

import (
	"testing"
	"time"
)

func TestSchedule_Delay(t *testing.T) {
	tests := []struct {
		name     string
		schedule Schedule
		attempt  int
		want     time.Duration
	}{
		{"production first attempt is immediate", ProductionSchedule, 0, 0},
		{"production second attempt", ProductionSchedule, 1, time.Minute},
		{"production third attempt", ProductionSchedule, 2, 300 * time.Second},
		{"production fourth attempt", ProductionSchedule, 3, 30 * time.Minute},
		{"production last step", ProductionSchedule, 4, 7200 * time.Second},
		{"production clamps past the end", ProductionSchedule, 5, 2 * time.Hour},
		{"production clamps far past the end", ProductionSchedule, 100, 2 * time.Hour},
		{"test first attempt", TestSchedule, 0, 0},
		{"test second attempt", TestSchedule, 1, 5 * time.Second},
		{"test clamps", TestSchedule, 9, 20 * time.Second},
		{"negative index", TestSchedule, -3, 0},
		{"empty schedule", Schedule{}, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.schedule.Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestSchedule_MaxAtAndBeyondLastIndex(t *testing.T) {
	for _, s := range []Schedule{ProductionSchedule, TestSchedule} {
		for n := s.Attempts() - 1; n < s.Attempts()+5; n++ {
			if got := s.Delay(n); got != s.Max() {
				t.Errorf("Delay(%d) = %v, want max %v", n, got, s.Max())
			}
		}
	}
}

func TestSelectSchedule(t *testing.T) {
	if got := SelectSchedule(true).Max(); got != 20*time.Second {
		t.Errorf("SelectSchedule(true).Max() = %v, want 20s", got)
	}
	if got := SelectSchedule(false).Max(); got != 2*time.Hour {
		t.Errorf("SelectSchedule(false).Max() = %v, want 2h", got)
	}
}
