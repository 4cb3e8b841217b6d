package backoff_test

import (
	"testing"
	"time"

	"github.com/cohereplatform/tempo/backoff"
)

func TestConstant_ReturnsFixedDelay(t *testing.T) {
	c := backoff.NewConstant(5 * time.Second)
	for attempt := 1; attempt <= 10; attempt++ {
		if got := c.Delay(attempt); got != 5*time.Second {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, 5*time.Second)
		}
	}
}

func TestExponentialWithJitter_StaysWithinBounds(t *testing.T) {
	e := backoff.NewExponentialWithJitter(time.Second, time.Minute)

	for attempt := 1; attempt <= 20; attempt++ {
		got := e.Delay(attempt)
		if got < 0 {
			t.Errorf("Delay(%d) = %v, want >= 0", attempt, got)
		}
		if got > time.Minute {
			t.Errorf("Delay(%d) = %v, want <= %v", attempt, got, time.Minute)
		}
	}
}

func TestExponentialWithJitter_RespectsExponentialCeiling(t *testing.T) {
	e := backoff.NewExponentialWithJitter(time.Second, time.Hour)

	// Attempt 3 has base 4s; every sample must stay below it.
	for i := 0; i < 100; i++ {
		if got := e.Delay(3); got > 4*time.Second {
			t.Fatalf("Delay(3) = %v, want <= %v", got, 4*time.Second)
		}
	}
}

func TestDefaultPollStrategy(t *testing.T) {
	s := backoff.DefaultPollStrategy()
	if got := s.Delay(1); got > time.Second {
		t.Errorf("Delay(1) = %v, want <= 1s", got)
	}
	if got := s.Delay(100); got > time.Minute {
		t.Errorf("Delay(100) = %v, want <= 1m (capped)", got)
	}
}
