package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/star/orbitd/internal/passes"
	"github.com/star/orbitd/internal/propagation"
	"github.com/star/orbitd/internal/tle"
	"github.com/star/orbitd/internal/transform"
)

// Reference element sets for an offline smoke run of the propagator:
// a near-Earth LEO orbit and a geosynchronous-class deep-space orbit.
var cases = []struct {
	name   string
	line1  string
	line2  string
	tsince []float64 // minutes since epoch
}{
	{
		name:   "VANGUARD 1",
		line1:  "1 00005U 58002B   00179.78495062  .00000023  00000-0  28098-4 0  4753",
		line2:  "2 00005  34.2682 348.7242 1859667 331.7664  19.3264 10.82419157413667",
		tsince: []float64{0, 360, 720, 1080, 1440},
	},
	{
		name:   "GEO TEST",
		line1:  "1 90001U 25001A   25180.50000000  .00000000  00000-0  00000-0 0  9996",
		line2:  "2 90001   1.5000  80.0000 0003000  50.0000 310.0000  1.00273790    04",
		tsince: []float64{0, 720, 1440},
	},
}

func main() {
	for _, c := range cases {
		el, err := tle.ParseLines(c.line1, c.line2)
		if err != nil {
			fmt.Println("ERROR parsing TLE:", err)
			os.Exit(1)
		}
		el.Name = c.name

		prop, err := propagation.NewPropagator(propagation.GravityWGS72)
		if err != nil {
			fmt.Println("ERROR:", err)
			os.Exit(1)
		}
		if err := prop.SetElements(el); err != nil {
			fmt.Println("ERROR binding TLE:", err)
			os.Exit(1)
		}

		fmt.Printf("%s (deep_space=%v perigee=%.1fkm period=%.1fmin)\n",
			c.name, prop.DeepSpace(), prop.PerigeeKm(), prop.PeriodMinutes())
		for _, ts := range c.tsince {
			sv, err := prop.FindPosition(ts)
			if err != nil {
				fmt.Printf("  t=%8.1f  ERROR %v\n", ts, err)
				continue
			}
			fmt.Printf("  t=%8.1f  r=(%14.6f %14.6f %14.6f) km  v=(%10.6f %10.6f %10.6f) km/s\n",
				ts, sv.X, sv.Y, sv.Z, sv.VX, sv.VY, sv.VZ)
		}
	}

	// Pass prediction demo over Denver using the LEO case.
	el, err := tle.ParseLines(cases[0].line1, cases[0].line2)
	if err != nil {
		fmt.Println("ERROR parsing TLE:", err)
		os.Exit(1)
	}
	el.Name = cases[0].name

	obs := transform.NewObserverPosition(39.7392, -104.9903, 1609)
	req := passes.Request{
		Observer:     obs,
		Entries:      []tle.Elements{el},
		Start:        el.Epoch.Time,
		HorizonHours: 24,
		MinElevation: 1,
		MaxPasses:    10,
	}

	results := passes.Predict(context.Background(), req)

	totalPasses := 0
	for _, sat := range results {
		if sat.Error != "" {
			fmt.Printf("  NORAD %d: ERROR %s\n", sat.NORADID, sat.Error)
			continue
		}
		fmt.Printf("  NORAD %d: %d passes\n", sat.NORADID, len(sat.Passes))
		totalPasses += len(sat.Passes)
		for j, p := range sat.Passes {
			fmt.Printf("    pass %d: start=%v maxEl=%.1f° dur=%.0fs\n",
				j, p.StartTime.Format(time.RFC3339), p.MaxElevation, p.DurationSeconds)
		}
	}
	fmt.Printf("\nTotal passes found: %d\n", totalPasses)
}
