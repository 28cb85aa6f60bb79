package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/orbit/orbitguard/internal/flux"
	"github.com/orbit/orbitguard/internal/metrics"
	"github.com/orbit/orbitguard/internal/propagation"
	"github.com/orbit/orbitguard/internal/risk"
	"github.com/orbit/orbitguard/internal/tle"
)

var tracer = otel.Tracer("github.com/orbit/orbitguard/internal/api")

type loadRequest struct {
	Source string `json:"source"` // sample | file | inline
	Path   string `json:"path,omitempty"`
	Text   string `json:"text,omitempty"`
}

func (s *Server) handleTLELoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	var text string
	switch req.Source {
	case "sample":
		if s.cfg.SampleTLEPath != "" {
			data, err := os.ReadFile(s.cfg.SampleTLEPath)
			if err != nil {
				respondError(w, http.StatusInternalServerError, fmt.Errorf("reading sample fixture: %w", err))
				return
			}
			text = string(data)
		} else {
			text = tle.SampleTLE
		}
	case "file":
		if req.Path == "" {
			respondError(w, http.StatusBadRequest, errors.New("missing 'path' for source=file"))
			return
		}
		data, err := os.ReadFile(req.Path)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Errorf("reading %s: %w", req.Path, err))
			return
		}
		text = string(data)
	case "inline":
		if req.Text == "" {
			respondError(w, http.StatusBadRequest, errors.New("missing 'text' for source=inline"))
			return
		}
		text = req.Text
	default:
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid source %q, use sample|file|inline", req.Source))
		return
	}

	count, err := s.store.Replace(text, req.Source)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	metrics.SetTLERecords(s.store.Count())

	if s.snapshots != nil {
		if err := s.snapshots.Write(text, time.Now()); err != nil {
			s.logger.Warn("writing TLE snapshot failed", "error", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"loaded": count,
		"source": req.Source,
	})
}

func (s *Server) handleObjects(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	if limit > s.cfg.MaxListLimit {
		limit = s.cfg.MaxListLimit
	}

	objects := s.store.List(limit)
	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(objects),
		"objects": objects,
	})
}

type sampleDTO struct {
	Timestamp string  `json:"t"`
	LatDeg    float64 `json:"lat_deg"`
	LonDeg    float64 `json:"lon_deg"`
	AltKm     float64 `json:"alt_km"`
}

func (s *Server) handlePropagate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	catalogID, err := parseCatalogID(q.Get("catalog_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	minutes := s.cfg.DefaultMinutes
	if raw := q.Get("minutes"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1440 {
			respondError(w, http.StatusBadRequest, fmt.Errorf("minutes must be 1..1440, got %q", raw))
			return
		}
		minutes = n
	}

	stepS := s.cfg.DefaultStepS
	if raw := q.Get("step_s"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 3600 {
			respondError(w, http.StatusBadRequest, fmt.Errorf("step_s must be 1..3600, got %q", raw))
			return
		}
		stepS = n
	}

	if positions := minutes*60/stepS + 1; positions > s.cfg.MaxSamples {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":         fmt.Sprintf("window yields %d samples", positions),
			"max_positions": s.cfg.MaxSamples,
		})
		return
	}

	start := time.Now().UTC()
	if raw := q.Get("start_iso"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Errorf("invalid start_iso, use RFC 3339: %w", err))
			return
		}
		start = t.UTC()
	}

	rec, err := s.store.Get(catalogID)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	ctx, span := tracer.Start(r.Context(), "propagate")
	span.SetAttributes(
		attribute.Int64("catalog_id", int64(catalogID)),
		attribute.Int("minutes", minutes),
		attribute.Int("step_s", stepS),
	)
	samples, err := s.prop.Propagate(ctx, rec, start, minutes, stepS)
	span.End()
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	dto := make([]sampleDTO, len(samples))
	for i, sm := range samples {
		dto[i] = sampleDTO{
			Timestamp: sm.Timestamp.Format(time.RFC3339),
			LatDeg:    sm.LatDeg,
			LonDeg:    sm.LonDeg,
			AltKm:     sm.AltKm,
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"catalog_id": rec.CatalogID,
		"name":       rec.Name,
		"samples":    dto,
	})
}

func (s *Server) handleFlux(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	altKm, err1 := strconv.ParseFloat(q.Get("alt_km"), 64)
	incDeg, err2 := strconv.ParseFloat(q.Get("inc_deg"), 64)
	sizeMin, err3 := strconv.ParseFloat(q.Get("size_min_cm"), 64)
	sizeMax, err4 := strconv.ParseFloat(q.Get("size_max_cm"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		respondError(w, http.StatusBadRequest, errors.New("alt_km, inc_deg, size_min_cm, size_max_cm are required floats"))
		return
	}

	value, outcome, err := s.table.Query(altKm, incDeg, sizeMin, sizeMax)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	metrics.RecordFluxLookup(string(outcome))

	respondJSON(w, http.StatusOK, map[string]any{
		"altitude_km":          altKm,
		"inclination_deg":      incDeg,
		"size_bin_cm":          [2]float64{sizeMin, sizeMax},
		"flux_per_m2_per_year": value,
		"resolution":           outcome,
	})
}

func (s *Server) handleCollision(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	catalogID, err := parseCatalogID(q.Get("catalog_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	altKm, err := strconv.ParseFloat(q.Get("alt_km"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("alt_km is a required float"))
		return
	}

	areaM2 := parseFloatDefault(q.Get("area_m2"), 10.0)
	sizeMin := parseFloatDefault(q.Get("size_min_cm"), 1.0)
	sizeMax := parseFloatDefault(q.Get("size_max_cm"), 10.0)
	durationDays := parseFloatDefault(q.Get("duration_days"), 365.0)

	rec, err := s.store.Get(catalogID)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	incDeg, err := rec.InclinationDeg()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err)
		return
	}

	_, span := tracer.Start(r.Context(), "collision_risk")
	defer span.End()

	fluxValue, outcome, err := s.table.Query(altKm, incDeg, sizeMin, sizeMax)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	metrics.RecordFluxLookup(string(outcome))

	prob, err := risk.CollisionProbability(areaM2, durationDays/365.0, fluxValue)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"catalog_id":            rec.CatalogID,
		"name":                  rec.Name,
		"inclination_deg":       incDeg,
		"altitude_km":           altKm,
		"size_bin_cm":           [2]float64{sizeMin, sizeMax},
		"flux_per_m2_per_year":  fluxValue,
		"cross_section_m2":      areaM2,
		"duration_days":         durationDays,
		"collision_probability": prob,
		"risk_level":            risk.ClassifyProbability(prob),
	})
}

type candidateDTO struct {
	CatalogID uint32  `json:"catalog_id"`
	Name      string  `json:"name"`
	LatDeg    float64 `json:"lat_deg"`
	LonDeg    float64 `json:"lon_deg"`
	AltKm     float64 `json:"alt_km"`
	SizeCm    float64 `json:"size_cm,omitempty"`
}

type proximityRequest struct {
	CatalogID     uint32         `json:"catalog_id"`
	MaxDistanceKm float64        `json:"max_distance_km"`
	TimeISO       string         `json:"time_iso,omitempty"`
	Candidates    []candidateDTO `json:"candidates"`
}

type assessmentDTO struct {
	CatalogID           uint32  `json:"catalog_id"`
	Name                string  `json:"name"`
	DistanceKm          float64 `json:"distance_km"`
	RelativeVelocityKmS float64 `json:"relative_velocity_km_s"`
	ProximityRiskFactor float64 `json:"proximity_risk_factor"`
	ThreatLevel         string  `json:"threat_level"`
}

func (s *Server) handleProximity(w http.ResponseWriter, r *http.Request) {
	var req proximityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	if req.MaxDistanceKm == 0 {
		req.MaxDistanceKm = 1000.0
	}

	at := time.Now().UTC()
	if req.TimeISO != "" {
		t, err := time.Parse(time.RFC3339, req.TimeISO)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Errorf("invalid time_iso, use RFC 3339: %w", err))
			return
		}
		at = t.UTC()
	}

	rec, err := s.store.Get(req.CatalogID)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	_, span := tracer.Start(r.Context(), "proximity_assessment")
	span.SetAttributes(attribute.Int("candidates", len(req.Candidates)))
	defer span.End()

	own, err := s.prop.PositionAt(rec, at)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	candidates := make([]risk.Candidate, len(req.Candidates))
	for i, c := range req.Candidates {
		candidates[i] = risk.Candidate{
			CatalogID: c.CatalogID,
			Name:      c.Name,
			Position:  risk.Position{LatDeg: c.LatDeg, LonDeg: c.LonDeg, AltKm: c.AltKm},
			SizeCm:    c.SizeCm,
		}
	}

	assessments, err := risk.Assess(
		risk.Position{LatDeg: own.LatDeg, LonDeg: own.LonDeg, AltKm: own.AltKm},
		candidates,
		req.MaxDistanceKm,
	)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	metrics.RecordRiskAssessments(len(assessments))

	dto := make([]assessmentDTO, len(assessments))
	for i, a := range assessments {
		dto[i] = assessmentDTO{
			CatalogID:           a.Candidate.CatalogID,
			Name:                a.Candidate.Name,
			DistanceKm:          a.DistanceKm,
			RelativeVelocityKmS: a.RelativeVelocityKmS,
			ProximityRiskFactor: a.ProximityRiskFactor,
			ThreatLevel:         string(a.Threat),
		}
	}

	summary := risk.Summarize(assessments)
	respondJSON(w, http.StatusOK, map[string]any{
		"catalog_id": rec.CatalogID,
		"name":       rec.Name,
		"position": map[string]float64{
			"lat_deg": own.LatDeg,
			"lon_deg": own.LonDeg,
			"alt_km":  own.AltKm,
		},
		"time":        at.Format(time.RFC3339),
		"assessments": dto,
		"summary": map[string]any{
			"assessed":   summary.Assessed,
			"high_risk":  summary.HighRisk,
			"nearest_km": summary.NearestKm,
		},
	})
}

func parseCatalogID(raw string) (uint32, error) {
	if raw == "" {
		return 0, errors.New("catalog_id is required")
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid catalog_id %q", raw)
	}
	return uint32(n), nil
}

func parseFloatDefault(raw string, def float64) float64 {
	if raw == "" {
		return def
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	return def
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tle.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, propagation.ErrInvalidOrbitalElements):
		return http.StatusUnprocessableEntity
	case errors.Is(err, propagation.ErrInvalidWindow),
		errors.Is(err, risk.ErrInvalidRiskParameters),
		errors.Is(err, flux.ErrInvalidQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}
