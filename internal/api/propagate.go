package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/star/orbitd/internal/metrics"
	"github.com/star/orbitd/internal/propagation"
	"github.com/star/orbitd/internal/tle"
	"github.com/star/orbitd/internal/transform"
)

// maxPositions bounds the horizon/step sweep so a single request cannot
// consume unbounded CPU.
const maxPositions = 10000

// statePoint is one propagated sample in the response.
type statePoint struct {
	Time     string        `json:"time"`
	TEME     temeState     `json:"teme"`
	ECEF     ecefState     `json:"ecef"`
	Geodetic geodeticState `json:"geodetic"`
}

type temeState struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
	VZ float64 `json:"vz"`
}

type ecefState struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
	VZ float64 `json:"vz"`
}

type geodeticState struct {
	LatDeg float64 `json:"lat_deg"`
	LonDeg float64 `json:"lon_deg"`
	AltM   float64 `json:"alt_m"`
}

// propagateSingleHandler serves GET /api/v1/propagate/{norad_id}.
//
// Query parameters: at (RFC3339, default now), horizon (seconds, default 0
// for a single sample), step (seconds, default 5). Requests whose sweep
// would exceed maxPositions samples are rejected with 400.
func propagateSingleHandler(logger *slog.Logger, store *tle.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		noradID, err := strconv.Atoi(r.PathValue("norad_id"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"error": "invalid norad_id"})
			return
		}

		target := time.Now().UTC()
		if at := r.URL.Query().Get("at"); at != "" {
			target, err = time.Parse(time.RFC3339, at)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]any{"error": "invalid at timestamp, want RFC3339"})
				return
			}
		}

		horizonSec := 0
		if v := r.URL.Query().Get("horizon"); v != "" {
			horizonSec, err = strconv.Atoi(v)
			if err != nil || horizonSec < 0 {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]any{"error": "invalid horizon"})
				return
			}
		}
		stepSec := 5
		if v := r.URL.Query().Get("step"); v != "" {
			stepSec, err = strconv.Atoi(v)
			if err != nil || stepSec < 1 {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]any{"error": "invalid step"})
				return
			}
		}

		numPositions := horizonSec/stepSec + 1
		if numPositions > maxPositions {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error":         "requested sweep exceeds position budget",
				"max_positions": maxPositions,
			})
			return
		}

		el, ok := store.Find(noradID)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"error": "unknown satellite"})
			return
		}

		prop, err := propagation.NewPropagator(propagation.GravityWGS72)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{"error": err.Error()})
			return
		}
		if err := prop.SetElements(el); err != nil {
			metrics.RecordPropagation("invalid")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{"error": err.Error()})
			return
		}

		points := make([]statePoint, 0, numPositions)
		errorCount := 0
		for i := 0; i < numPositions; i++ {
			t := target.Add(time.Duration(i*stepSec) * time.Second)
			teme, err := prop.FindPositionAtTime(t)
			if err != nil {
				metrics.RecordPropagation(resultLabel(err))
				errorCount++
				logger.Warn("propagation failed",
					"norad_id", noradID,
					"timestamp", t.UTC().Format(time.RFC3339),
					"error", err,
				)
				continue
			}
			metrics.RecordPropagation("ok")

			ecef := transform.TEMEToECEF(teme, t)
			geo := transform.ECEFToGeodetic(ecef.X, ecef.Y, ecef.Z)

			points = append(points, statePoint{
				Time: t.UTC().Format(time.RFC3339),
				TEME: temeState{
					X: teme.X, Y: teme.Y, Z: teme.Z,
					VX: teme.VX, VY: teme.VY, VZ: teme.VZ,
				},
				ECEF: ecefState{
					X: ecef.X, Y: ecef.Y, Z: ecef.Z,
					VX: ecef.VX, VY: ecef.VY, VZ: ecef.VZ,
				},
				Geodetic: geodeticState{
					LatDeg: geo.LatDeg,
					LonDeg: geo.LonDeg,
					AltM:   geo.AltM,
				},
			})
		}

		if len(points) == 0 {
			// Every requested sample failed; surface the failure class.
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{
				"error":  "propagation failed for all requested times",
				"errors": errorCount,
			})
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"norad_id":   noradID,
			"name":       el.Name,
			"deep_space": prop.DeepSpace(),
			"points":     points,
			"errors":     errorCount,
		})
	}
}

// resultLabel maps a propagation error to its metrics label.
func resultLabel(err error) string {
	var decayed *propagation.DecayedError
	switch {
	case errors.As(err, &decayed):
		return "decayed"
	case errors.Is(err, propagation.ErrHyperbolic):
		return "hyperbolic"
	default:
		return "error"
	}
}
