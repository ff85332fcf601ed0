package negotiation

import (
	"math"
	"testing"
	"time"
)

func TestProgress_Get(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p := NewProgress(start, time.Minute)

	tests := []struct {
		offset time.Duration
		want   float64
	}{
		{-10 * time.Second, 0},
		{0, 0},
		{15 * time.Second, 0.25},
		{30 * time.Second, 0.5},
		{time.Minute, 1},
		{2 * time.Minute, 1},
	}
	for _, tt := range tests {
		if got := p.Get(start.Add(tt.offset)); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Get(start+%v) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestProgress_Monotonic(t *testing.T) {
	start := time.Now()
	p := NewProgress(start, 90*time.Second)
	prev := -1.0
	for off := time.Duration(0); off <= 2*time.Minute; off += time.Second {
		got := p.Get(start.Add(off))
		if got < prev {
			t.Fatalf("progress decreased: %v after %v", got, prev)
		}
		prev = got
	}
}

func TestProgress_ZeroDuration(t *testing.T) {
	start := time.Now()
	p := NewProgress(start, 0)
	if got := p.Get(start); got != 1 {
		t.Errorf("zero-duration progress = %v, want 1", got)
	}
}

func TestProgress_Deadline(t *testing.T) {
	start := time.Now()
	p := NewProgress(start, time.Minute)
	if got := p.Deadline(); !got.Equal(start.Add(time.Minute)) {
		t.Errorf("deadline = %v", got)
	}
}
