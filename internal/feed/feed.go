// Package feed loads the pre-computed hourly ridership dataset.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jusunglee/mta-ridership/internal/models"
)

// Report summarizes one load
type Report struct {
	Source  string
	Kept    int
	Dropped int
}

// Loader reads datasets from local files or http(s) URLs
type Loader struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLoader creates a new loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Load reads and validates the dataset at source
func (l *Loader) Load(ctx context.Context, source string) ([]models.StationSample, Report, error) {
	rc, err := l.open(ctx, source)
	if err != nil {
		return nil, Report{Source: source}, err
	}
	defer rc.Close()

	samples, report, err := Decode(rc, l.logger)
	report.Source = source
	if err != nil {
		return nil, report, fmt.Errorf("decode %s: %w", source, err)
	}

	l.logger.Info("dataset loaded", "source", source, "kept", report.Kept, "dropped", report.Dropped)
	return samples, report, nil
}

func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err := l.fetch(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", source, err)
		}
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// number accepts both 12.5 and "12.5"; open-data exports quote numerics
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = number(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = number(v)
	return nil
}

type record struct {
	StationID string `json:"station_complex_id"`
	Name      string `json:"station_complex"`
	Day       string `json:"transit_day"`
	Hour      any    `json:"transit_hour"`
	Ridership number `json:"total_ridership"`
	Latitude  number `json:"latitude"`
	Longitude number `json:"longitude"`
	Borough   string `json:"borough"`
}

// Decode parses a JSON array of samples. Records that cannot be placed
// on the map or the timeline are dropped and logged.
func Decode(r io.Reader, logger *slog.Logger) ([]models.StationSample, Report, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, Report{}, err
	}

	var report Report
	samples := make([]models.StationSample, 0, len(records))
	for i, rec := range records {
		sample, err := rec.sample()
		if err != nil {
			report.Dropped++
			logger.Warn("dropping record", "index", i, "station", rec.StationID, "error", err)
			continue
		}
		samples = append(samples, sample)
	}
	report.Kept = len(samples)
	return samples, report, nil
}

func (rec record) sample() (models.StationSample, error) {
	hour, err := hourString(rec.Hour)
	if err != nil {
		return models.StationSample{}, err
	}
	ts := models.NewTimeState(rec.Day, hour)
	if ts.Day == "" {
		return models.StationSample{}, fmt.Errorf("missing transit_day")
	}
	if h := ts.HourInt(); h < 0 || h > 23 {
		return models.StationSample{}, fmt.Errorf("invalid transit_hour %q", hour)
	}

	lat, lon := float64(rec.Latitude), float64(rec.Longitude)
	if !finite(lat) || !finite(lon) || (lat == 0 && lon == 0) {
		return models.StationSample{}, fmt.Errorf("missing coordinates")
	}

	ridership := float64(rec.Ridership)
	if !finite(ridership) || ridership < 0 {
		return models.StationSample{}, fmt.Errorf("invalid ridership %v", ridership)
	}

	return models.StationSample{
		StationID: rec.StationID,
		Name:      rec.Name,
		Day:       ts.Day,
		Hour:      ts.Hour,
		Ridership: ridership,
		Latitude:  lat,
		Longitude: lon,
		Borough:   rec.Borough,
	}, nil
}

// hourString accepts the hour as a JSON string or number
func hourString(v any) (string, error) {
	switch h := v.(type) {
	case string:
		return h, nil
	case float64:
		if h != math.Trunc(h) {
			return "", fmt.Errorf("invalid transit_hour %v", h)
		}
		return strconv.Itoa(int(h)), nil
	case nil:
		return "", fmt.Errorf("missing transit_hour")
	}
	return "", fmt.Errorf("invalid transit_hour %v", v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
