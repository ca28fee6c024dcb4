package backoff

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Parallel()
	p := Policy{Initial: 100 * time.Millisecond, Max: 5 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{7, 5 * time.Second}, // 6400ms capped
		{20, 5 * time.Second},
	}

	for _, tt := range tests {
		if got := p.Duration(tt.attempt); got != tt.want {
			t.Errorf("Duration(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestZeroPolicyNeverWaits(t *testing.T) {
	t.Parallel()
	var p Policy
	for attempt := 1; attempt <= 5; attempt++ {
		if got := p.Duration(attempt); got != 0 {
			t.Errorf("Duration(%d) = %v, want 0", attempt, got)
		}
	}
}

func TestMaxDefaultsToInitial(t *testing.T) {
	t.Parallel()
	p := Policy{Initial: time.Second}
	if got := p.Duration(5); got != time.Second {
		t.Errorf("Duration(5) = %v, want 1s", got)
	}
}
