package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Location represents a geographic coordinate
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// StationSample is one hourly ridership observation for a station complex
type StationSample struct {
	StationID string  `json:"station_complex_id"`
	Name      string  `json:"station_complex"`
	Day       string  `json:"transit_day"`
	Hour      string  `json:"transit_hour"`
	Ridership float64 `json:"total_ridership"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Borough   string  `json:"borough"`
}

// Location returns the sample's coordinate
func (s StationSample) Location() Location {
	return Location{Lat: s.Latitude, Lon: s.Longitude}
}

// Time returns the (day, hour) slot the sample belongs to
func (s StationSample) Time() TimeState {
	return NewTimeState(s.Day, s.Hour)
}

// CanvasExtent is the pixel size of a render target
type CanvasExtent struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are positive
func (e CanvasExtent) Valid() bool {
	return e.Width > 0 && e.Height > 0
}

// TimeState identifies one step of the timeline
type TimeState struct {
	Day  string `json:"day"`
	Hour string `json:"hour"`
}

// NewTimeState normalizes the hour so "7" and "07" name the same slot
func NewTimeState(day, hour string) TimeState {
	return TimeState{Day: strings.TrimSpace(day), Hour: normalizeHour(hour)}
}

// HourInt returns the hour as an integer, or -1 if it does not parse
func (t TimeState) HourInt() int {
	h, err := strconv.Atoi(t.Hour)
	if err != nil {
		return -1
	}
	return h
}

// IsZero reports whether t is unset
func (t TimeState) IsZero() bool {
	return t.Day == "" && t.Hour == ""
}

// Less orders slots by day, then numeric hour
func (t TimeState) Less(o TimeState) bool {
	if t.Day != o.Day {
		return t.Day < o.Day
	}
	return t.HourInt() < o.HourInt()
}

func (t TimeState) String() string {
	return fmt.Sprintf("%s %s", t.Day, t.Hour)
}

func normalizeHour(hour string) string {
	hour = strings.TrimSpace(hour)
	h, err := strconv.Atoi(hour)
	if err != nil {
		return hour
	}
	return fmt.Sprintf("%02d", h)
}

// RGB is an opaque 8-bit color
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex formats the color as #RRGGBB
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseHex parses #RRGGBB or RRGGBB
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MustParseHex is ParseHex for package-level constants
func MustParseHex(s string) RGB {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// GlowStop is one stop of a radial alpha gradient
type GlowStop struct {
	Offset float64 `json:"offset"`
	Alpha  float64 `json:"alpha"`
}

// VisualEncoding describes how one station marker is drawn
type VisualEncoding struct {
	T          float64    `json:"t"`
	Radius     float64    `json:"radius"`
	Fill       RGB        `json:"fill"`
	Brightness float64    `json:"brightness"`
	Glow       []GlowStop `json:"glow"`
	Stroke     RGB        `json:"stroke"`
}

// EncodedStation is a projected and encoded station for one frame
type EncodedStation struct {
	Sample   StationSample  `json:"-"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Encoding VisualEncoding `json:"encoding"`
}

// StationResponse is the API response format for a frame station
type StationResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Borough   string         `json:"borough"`
	Ridership float64        `json:"ridership"`
	Location  [2]float64     `json:"location"`
	Point     [2]float64     `json:"point"`
	Encoding  VisualEncoding `json:"encoding"`
}

// ConvertToResponse converts an EncodedStation to StationResponse format
func (s *EncodedStation) ConvertToResponse() StationResponse {
	return StationResponse{
		ID:        s.Sample.StationID,
		Name:      s.Sample.Name,
		Borough:   s.Sample.Borough,
		Ridership: s.Sample.Ridership,
		Location:  [2]float64{s.Sample.Latitude, s.Sample.Longitude},
		Point:     [2]float64{s.X, s.Y},
		Encoding:  s.Encoding,
	}
}
