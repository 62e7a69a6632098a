package tle

import "time"

// Elements holds the numeric orbital elements decoded from one two-line
// element set. Angles are radians, mean motion is rad/min — the units the
// propagator consumes directly.
type Elements struct {
	NORADID int
	Name    string
	Epoch   Epoch

	Inclination   float64 // rad
	AscendingNode float64 // rad
	Eccentricity  float64
	ArgPerigee    float64 // rad
	MeanAnomaly   float64 // rad
	MeanMotion    float64 // rad/min
	BStar         float64

	// Raw lines are retained for diagnostics and for cross-validation
	// against other SGP4 implementations.
	Line1 string
	Line2 string
}

// EpochRange represents the minimum and maximum epoch times in a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Dataset represents a complete set of TLE data from a source.
type Dataset struct {
	Source     string
	FetchedAt  time.Time
	EpochRange EpochRange
	Satellites []Elements
}
