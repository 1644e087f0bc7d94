// Package playback advances the current (day, hour) along the dataset
// timeline on a fixed interval.
package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jusunglee/mta-ridership/internal/models"
)

// ErrEmptyTimeline is returned when there is nothing to play
var ErrEmptyTimeline = errors.New("timeline is empty")

// Timeline supplies the ordered time steps
type Timeline interface {
	Timeline() []models.TimeState
}

// Status is a snapshot of the player
type Status struct {
	Time    models.TimeState `json:"time"`
	Index   int              `json:"index"`
	Length  int              `json:"length"`
	Playing bool             `json:"playing"`
}

// Player owns the current timeline index
type Player struct {
	timeline Timeline
	interval time.Duration
	onChange func(Status)
	logger   *slog.Logger

	mu      sync.Mutex
	index   int
	playing bool

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPlayer creates a paused player at the first step. onChange, if set,
// is called after every index change from the goroutine that caused it.
func NewPlayer(timeline Timeline, interval time.Duration, onChange func(Status), logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		timeline: timeline,
		interval: interval,
		onChange: onChange,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the playback loop
func (p *Player) Start() {
	p.wg.Add(1)
	go p.loop()
}

// Stop stops the playback loop
func (p *Player) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

func (p *Player) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !p.Playing() {
				continue
			}
			if _, err := p.Step(1); err != nil {
				p.logger.Debug("playback tick skipped", "error", err)
			}
		case <-p.stopCh:
			return
		}
	}
}

// Status returns the current position
func (p *Player) Status() (Status, error) {
	steps := p.timeline.Timeline()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked(steps)
}

// Step moves delta steps, wrapping at either end
func (p *Player) Step(delta int) (Status, error) {
	steps := p.timeline.Timeline()
	n := len(steps)
	if n == 0 {
		return Status{}, ErrEmptyTimeline
	}

	p.mu.Lock()
	p.index = ((p.index+delta)%n + n) % n
	st, err := p.statusLocked(steps)
	p.mu.Unlock()

	p.notify(st)
	return st, err
}

// Seek jumps to index i
func (p *Player) Seek(i int) (Status, error) {
	steps := p.timeline.Timeline()
	if len(steps) == 0 {
		return Status{}, ErrEmptyTimeline
	}
	if i < 0 || i >= len(steps) {
		return Status{}, fmt.Errorf("index %d out of range [0, %d)", i, len(steps))
	}

	p.mu.Lock()
	p.index = i
	st, err := p.statusLocked(steps)
	p.mu.Unlock()

	p.notify(st)
	return st, err
}

// SeekTime jumps to the step equal to t
func (p *Player) SeekTime(t models.TimeState) (Status, error) {
	for i, s := range p.timeline.Timeline() {
		if s == t {
			return p.Seek(i)
		}
	}
	return Status{}, fmt.Errorf("time %s not in timeline", t)
}

// Toggle flips between playing and paused and reports the new state
func (p *Player) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = !p.playing
	return p.playing
}

// SetPlaying sets the play state
func (p *Player) SetPlaying(playing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = playing
}

// Playing reports whether the loop advances on each tick
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) statusLocked(steps []models.TimeState) (Status, error) {
	if len(steps) == 0 {
		return Status{Playing: p.playing}, ErrEmptyTimeline
	}
	// The dataset may have shrunk since the last move.
	if p.index >= len(steps) {
		p.index = 0
	}
	return Status{
		Time:    steps[p.index],
		Index:   p.index,
		Length:  len(steps),
		Playing: p.playing,
	}, nil
}

func (p *Player) notify(st Status) {
	if p.onChange != nil {
		p.onChange(st)
	}
}
