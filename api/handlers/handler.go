package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/r2"
	"github.com/gorilla/mux"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jusunglee/mta-ridership/internal/histogram"
	"github.com/jusunglee/mta-ridership/internal/models"
	"github.com/jusunglee/mta-ridership/internal/playback"
	"github.com/jusunglee/mta-ridership/internal/render"
	"github.com/jusunglee/mta-ridership/internal/store"
	"github.com/jusunglee/mta-ridership/pkg/ridership"
)

const (
	contentTypeProtobuf = "application/x-protobuf"
	maxCanvasSide       = 4096
	defaultNearest      = 5
	maxNearest          = 1000
)

// Handler handles HTTP requests
type Handler struct {
	client ridership.Client
	extent models.CanvasExtent
}

// NewHandler creates a new HTTP handler. extent is the canvas size used
// when a request does not give width and height.
func NewHandler(client ridership.Client, extent models.CanvasExtent) *Handler {
	return &Handler{client: client, extent: extent}
}

// RegisterRoutes registers all routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleIndex).Methods("GET")
	r.HandleFunc("/timeline", h.handleTimeline).Methods("GET")
	r.HandleFunc("/frames/{day}/{hour:[0-9]{1,2}}.png", h.handleFramePNG).Methods("GET")
	r.HandleFunc("/frames/{day}/{hour:[0-9]{1,2}}", h.handleFrame).Methods("GET")
	r.HandleFunc("/histogram/{day}/{hour:[0-9]{1,2}}.svg", h.handleHistogramSVG).Methods("GET")
	r.HandleFunc("/histogram/{day}/{hour:[0-9]{1,2}}", h.handleHistogram).Methods("GET")
	r.HandleFunc("/hover", h.handleHover).Methods("GET")
	r.HandleFunc("/legend", h.handleLegend).Methods("GET")
	r.HandleFunc("/nearest", h.handleNearest).Methods("GET")
	r.HandleFunc("/playback", h.handlePlayback).Methods("GET")
	r.HandleFunc("/playback/toggle", h.handleToggle).Methods("POST")
	r.HandleFunc("/playback/step", h.handleStep).Methods("POST")
}

// Response wraps API responses
type Response struct {
	Data    interface{} `json:"data"`
	Updated string      `json:"updated,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// FrameResponse is one encoded frame
type FrameResponse struct {
	Time     models.TimeState         `json:"time"`
	Extent   models.CanvasExtent      `json:"extent"`
	Stations []models.StationResponse `json:"stations"`
}

// HistogramResponse carries both distributions and their bar layout
type HistogramResponse struct {
	Time       models.TimeState     `json:"time"`
	Comparison histogram.Comparison `json:"comparison"`
	Baseline   []histogram.Bar      `json:"baseline_bars"`
	Current    []histogram.Bar      `json:"current_bars"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"title":  "mta-ridership",
		"readme": "Hourly subway ridership frames: see /timeline, /frames/{day}/{hour} and /histogram/{day}/{hour}",
	}
	h.writeJSON(w, response)
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	timeline, err := h.client.Timeline()
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeJSON(w, h.wrap(timeline))
}

func (h *Handler) handleFrame(w http.ResponseWriter, r *http.Request) {
	t := timeFromVars(r)
	extent, err := h.parseExtent(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	frame, err := h.client.Frame(t, extent)
	if err != nil {
		h.writeClientError(w, err)
		return
	}

	data := FrameResponse{
		Time:     t,
		Extent:   extent,
		Stations: make([]models.StationResponse, len(frame)),
	}
	for i := range frame {
		data.Stations[i] = frame[i].ConvertToResponse()
	}

	if wantsProtobuf(r) {
		h.writeProtobuf(w, h.wrap(data))
		return
	}
	h.writeJSON(w, h.wrap(data))
}

func (h *Handler) handleFramePNG(w http.ResponseWriter, r *http.Request) {
	extent, err := h.parseExtent(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	st := render.State{Time: timeFromVars(r), Extent: extent}
	if p, ok, err := parsePoint(r); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	} else if ok {
		st.Hover = &p
	}

	var buf bytes.Buffer
	if _, err := h.client.RenderPNG(&buf, st); err != nil {
		h.writeClientError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	writeBody(w, r, &buf)
}

func (h *Handler) handleHistogram(w http.ResponseWriter, r *http.Request) {
	t := timeFromVars(r)
	cmp, err := h.client.Histogram(t)
	if err != nil {
		h.writeClientError(w, err)
		return
	}

	layout := histogram.DefaultLayout
	top := histogram.MaxCount(cmp.Baseline, cmp.Current)
	baseline, err := layout.Bars(cmp.Baseline, top)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	current, err := layout.Bars(cmp.Current, top)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, h.wrap(HistogramResponse{
		Time:       t,
		Comparison: cmp,
		Baseline:   baseline,
		Current:    current,
	}))
}

func (h *Handler) handleHistogramSVG(w http.ResponseWriter, r *http.Request) {
	width, height := int(histogram.DefaultLayout.Width), int(histogram.DefaultLayout.Height)*2
	var buf bytes.Buffer
	if err := h.client.HistogramSVG(&buf, timeFromVars(r), width, height); err != nil {
		h.writeClientError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	writeBody(w, r, &buf)
}

func (h *Handler) handleHover(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("day") == "" || q.Get("hour") == "" {
		h.writeError(w, "Missing day/hour parameter", http.StatusBadRequest)
		return
	}
	p, ok, err := parsePoint(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !ok {
		h.writeError(w, "Missing x/y parameter", http.StatusBadRequest)
		return
	}
	extent, err := h.parseExtent(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	station, err := h.client.Hover(models.NewTimeState(q.Get("day"), q.Get("hour")), extent, p)
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeJSON(w, h.wrap(station.ConvertToResponse()))
}

func (h *Handler) handleLegend(w http.ResponseWriter, r *http.Request) {
	legend, err := h.client.Legend()
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeJSON(w, h.wrap(legend))
}

func (h *Handler) handleNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	latStr := q.Get("lat")
	lonStr := q.Get("lon")

	if latStr == "" || lonStr == "" {
		h.writeError(w, "Missing lat/lon parameter", http.StatusBadRequest)
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		h.writeError(w, "Invalid lat parameter", http.StatusBadRequest)
		return
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		h.writeError(w, "Invalid lon parameter", http.StatusBadRequest)
		return
	}

	limit := defaultNearest
	if s := q.Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 0 || limit > maxNearest {
			h.writeError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
	}

	t := models.NewTimeState(q.Get("day"), q.Get("hour"))
	if t.IsZero() {
		// Default to the step playback is showing.
		st, err := h.client.Playback()
		if err != nil {
			h.writeClientError(w, err)
			return
		}
		t = st.Time
	}

	samples, err := h.client.Nearest(lat, lon, t, limit)
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeJSON(w, h.wrap(samples))
}

func (h *Handler) handlePlayback(w http.ResponseWriter, r *http.Request) {
	st, err := h.client.Playback()
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeJSON(w, h.wrap(st))
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	st, err := h.client.TogglePlayback()
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeJSON(w, h.wrap(st))
}

func (h *Handler) handleStep(w http.ResponseWriter, r *http.Request) {
	delta := 1
	if s := r.URL.Query().Get("delta"); s != "" {
		var err error
		if delta, err = strconv.Atoi(s); err != nil {
			h.writeError(w, "Invalid delta parameter", http.StatusBadRequest)
			return
		}
	}
	st, err := h.client.StepPlayback(delta)
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeJSON(w, h.wrap(st))
}

func (h *Handler) wrap(data interface{}) Response {
	response := Response{Data: data}
	if updated := h.client.GetLastUpdate(); !updated.IsZero() {
		response.Updated = updated.Format(time.RFC3339)
	}
	return response
}

func timeFromVars(r *http.Request) models.TimeState {
	vars := mux.Vars(r)
	return models.NewTimeState(vars["day"], vars["hour"])
}

// parseExtent reads width and height, falling back to the handler default
func (h *Handler) parseExtent(r *http.Request) (models.CanvasExtent, error) {
	extent := h.extent
	q := r.URL.Query()
	for _, f := range []struct {
		name string
		dst  *float64
	}{{"width", &extent.Width}, {"height", &extent.Height}} {
		s := q.Get(f.name)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 || v > maxCanvasSide {
			return models.CanvasExtent{}, fmt.Errorf("invalid %s parameter", f.name)
		}
		*f.dst = v
	}
	return extent, nil
}

// parsePoint reads an optional x, y pixel position
func parsePoint(r *http.Request) (r2.Point, bool, error) {
	q := r.URL.Query()
	xs, ys := q.Get("x"), q.Get("y")
	if xs == "" && ys == "" {
		return r2.Point{}, false, nil
	}
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return r2.Point{}, false, errors.New("invalid x parameter")
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return r2.Point{}, false, errors.New("invalid y parameter")
	}
	return r2.Point{X: x, Y: y}, true, nil
}

func wantsProtobuf(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), contentTypeProtobuf) || r.URL.Query().Get("format") == "protobuf"
}

// writeBody copies a rendered body to the client. Headers are already
// sent by then, so a failure can only be logged.
func writeBody(w http.ResponseWriter, r *http.Request, buf *bytes.Buffer) {
	size := buf.Len()
	if _, err := buf.WriteTo(w); err != nil {
		RequestLogger(r.Context()).Warn("failed to write response",
			"path", r.URL.Path,
			"bytes", size,
			"error", err,
		)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.writeError(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeProtobuf sends data as a google.protobuf.Struct built from its
// JSON form, so the field names match the JSON responses.
func (h *Handler) writeProtobuf(w http.ResponseWriter, data interface{}) {
	msg, err := toStruct(data)
	if err != nil {
		h.writeError(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	b, err := proto.Marshal(msg)
	if err != nil {
		h.writeError(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeProtobuf)
	w.Write(b)
}

func toStruct(data interface{}) (*structpb.Struct, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func (h *Handler) writeClientError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrTimeNotFound),
		errors.Is(err, render.ErrNoStation),
		errors.Is(err, playback.ErrEmptyTimeline):
		h.writeError(w, err.Error(), http.StatusNotFound)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
