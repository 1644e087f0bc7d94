package playback

import (
	"errors"
	"testing"
	"time"

	"github.com/jusunglee/mta-ridership/internal/models"
)

type steps []models.TimeState

func (s steps) Timeline() []models.TimeState { return s }

func testTimeline() steps {
	return steps{
		models.NewTimeState("2024-10-01", "08"),
		models.NewTimeState("2024-10-01", "09"),
		models.NewTimeState("2024-10-01", "10"),
	}
}

func TestStepWraps(t *testing.T) {
	p := NewPlayer(testTimeline(), time.Hour, nil, nil)

	tests := []struct {
		delta int
		index int
	}{
		{1, 1},
		{1, 2},
		{1, 0},
		{-1, 2},
		{-4, 1},
	}
	for _, tt := range tests {
		st, err := p.Step(tt.delta)
		if err != nil {
			t.Fatalf("Step(%d): %v", tt.delta, err)
		}
		if st.Index != tt.index {
			t.Errorf("Step(%d): expected index %d, got %d", tt.delta, tt.index, st.Index)
		}
		if st.Length != 3 {
			t.Errorf("expected length 3, got %d", st.Length)
		}
	}
}

func TestSeek(t *testing.T) {
	var got []Status
	p := NewPlayer(testTimeline(), time.Hour, func(s Status) { got = append(got, s) }, nil)

	st, err := p.Seek(2)
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if st.Time.Hour != "10" {
		t.Errorf("expected hour 10, got %s", st.Time.Hour)
	}
	if _, err := p.Seek(3); err == nil {
		t.Error("expected out of range error")
	}
	if _, err := p.SeekTime(models.NewTimeState("2024-10-01", "9")); err != nil {
		t.Errorf("SeekTime: %v", err)
	}
	if _, err := p.SeekTime(models.NewTimeState("2024-10-02", "9")); err == nil {
		t.Error("expected error for unknown time")
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[1].Index != 1 {
		t.Errorf("expected last notification at index 1, got %d", got[1].Index)
	}
}

func TestEmptyTimeline(t *testing.T) {
	p := NewPlayer(steps{}, time.Hour, nil, nil)
	if _, err := p.Step(1); !errors.Is(err, ErrEmptyTimeline) {
		t.Errorf("expected ErrEmptyTimeline, got %v", err)
	}
	if _, err := p.Status(); !errors.Is(err, ErrEmptyTimeline) {
		t.Errorf("expected ErrEmptyTimeline, got %v", err)
	}
}

func TestToggle(t *testing.T) {
	p := NewPlayer(testTimeline(), time.Hour, nil, nil)
	if p.Playing() {
		t.Fatal("expected player to start paused")
	}
	if !p.Toggle() || !p.Playing() {
		t.Error("expected playing after toggle")
	}
	if p.Toggle() {
		t.Error("expected paused after second toggle")
	}
}

func TestPlayerLoop(t *testing.T) {
	changes := make(chan Status, 16)
	p := NewPlayer(testTimeline(), 5*time.Millisecond, func(s Status) {
		select {
		case changes <- s:
		default:
		}
	}, nil)
	p.SetPlaying(true)
	p.Start()
	defer p.Stop()

	seen := 0
	timeout := time.After(2 * time.Second)
	for seen < 4 {
		select {
		case st := <-changes:
			if st.Index < 0 || st.Index >= 3 {
				t.Fatalf("index %d out of range", st.Index)
			}
			seen++
		case <-timeout:
			t.Fatalf("expected 4 ticks, got %d", seen)
		}
	}
}

func TestPlayerPausedDoesNotAdvance(t *testing.T) {
	p := NewPlayer(testTimeline(), time.Millisecond, nil, nil)
	p.Start()
	time.Sleep(20 * time.Millisecond)
	p.Stop()
	p.Stop()

	st, err := p.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Index != 0 {
		t.Errorf("expected index 0 while paused, got %d", st.Index)
	}
}
