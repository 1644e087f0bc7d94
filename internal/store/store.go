package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aclements/go-moremath/stats"
	"github.com/golang/geo/s2"

	"github.com/jusunglee/mta-ridership/internal/models"
)

// ErrTimeNotFound is returned for a (day, hour) absent from the dataset
var ErrTimeNotFound = errors.New("time not found")

// earthRadiusKm is the mean Earth radius
const earthRadiusKm = 6371

// Store manages the in-memory ridership dataset
type Store struct {
	mu         sync.RWMutex
	samples    []models.StationSample
	byTime     map[models.TimeState][]int
	timeline   []models.TimeState
	ridership  []float64
	lastUpdate time.Time
}

// NewStore creates a new store instance
func NewStore() *Store {
	return &Store{
		byTime: make(map[models.TimeState][]int),
	}
}

// Replace swaps in a new dataset. Sample order is preserved; it is the
// draw order within a frame.
func (s *Store) Replace(samples []models.StationSample) {
	byTime := make(map[models.TimeState][]int)
	ridership := make([]float64, len(samples))
	owned := make([]models.StationSample, len(samples))
	copy(owned, samples)

	for i := range owned {
		// Normalize hours once so lookups with "7" and "07" agree.
		ts := owned[i].Time()
		owned[i].Day, owned[i].Hour = ts.Day, ts.Hour
		byTime[ts] = append(byTime[ts], i)
		ridership[i] = owned[i].Ridership
	}

	timeline := make([]models.TimeState, 0, len(byTime))
	for ts := range byTime {
		timeline = append(timeline, ts)
	}
	sort.Slice(timeline, func(i, j int) bool {
		return timeline[i].Less(timeline[j])
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = owned
	s.byTime = byTime
	s.timeline = timeline
	s.ridership = ridership
	s.lastUpdate = time.Now()
}

// Len returns the number of samples
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// Timeline returns every (day, hour) present, in chronological order
func (s *Store) Timeline() []models.TimeState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.TimeState, len(s.timeline))
	copy(result, s.timeline)
	return result
}

// Has reports whether t is on the timeline
func (s *Store) Has(t models.TimeState) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byTime[models.NewTimeState(t.Day, t.Hour)]
	return ok
}

// Samples returns the samples recorded at t. An unknown t yields an
// empty slice; use Has to tell the two apart.
func (s *Store) Samples(t models.TimeState) []models.StationSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.byTime[models.NewTimeState(t.Day, t.Hour)]
	result := make([]models.StationSample, len(idx))
	for i, j := range idx {
		result[i] = s.samples[j]
	}
	return result
}

// All returns every sample
func (s *Store) All() []models.StationSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.StationSample, len(s.samples))
	copy(result, s.samples)
	return result
}

// Ridership returns every ridership value in dataset order
func (s *Store) Ridership() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]float64, len(s.ridership))
	copy(result, s.ridership)
	return result
}

// RidershipAt returns the ridership values recorded at t
func (s *Store) RidershipAt(t models.TimeState) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.byTime[models.NewTimeState(t.Day, t.Hour)]
	result := make([]float64, len(idx))
	for i, j := range idx {
		result[i] = s.ridership[j]
	}
	return result
}

// Bounds returns the smallest and largest ridership in the dataset
func (s *Store) Bounds() (float64, float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.ridership) == 0 {
		return 0, 0, fmt.Errorf("empty dataset")
	}
	sample := stats.Sample{Xs: s.ridership}
	lo, hi := sample.Bounds()
	return lo, hi, nil
}

// Index returns the position of t on the timeline
func (s *Store) Index(t models.TimeState) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t = models.NewTimeState(t.Day, t.Hour)
	i := sort.Search(len(s.timeline), func(i int) bool {
		return !s.timeline[i].Less(t)
	})
	if i == len(s.timeline) || s.timeline[i] != t {
		return 0, fmt.Errorf("%s: %w", t, ErrTimeNotFound)
	}
	return i, nil
}

// Nearest returns up to limit samples at t ordered by distance from (lat, lon)
func (s *Store) Nearest(lat, lon float64, t models.TimeState, limit int) []models.StationSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type sampleDist struct {
		sample   models.StationSample
		distance float64
	}

	var candidates []sampleDist
	for _, j := range s.byTime[models.NewTimeState(t.Day, t.Hour)] {
		sample := s.samples[j]
		dist := distance(lat, lon, sample.Latitude, sample.Longitude)
		candidates = append(candidates, sampleDist{sample, dist})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	limit = max(0, min(limit, len(candidates)))

	result := make([]models.StationSample, 0, limit)
	for _, c := range candidates[:limit] {
		result = append(result, c.sample)
	}
	return result
}

// GetLastUpdate returns the last time the dataset was replaced
func (s *Store) GetLastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// distance returns the great-circle distance in kilometers
func distance(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * earthRadiusKm
}
