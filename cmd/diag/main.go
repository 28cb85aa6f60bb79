package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/orbit/orbitguard/internal/flux"
	"github.com/orbit/orbitguard/internal/propagation"
	"github.com/orbit/orbitguard/internal/risk"
	"github.com/orbit/orbitguard/internal/tle"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	text := tle.SampleTLE
	source := "embedded sample"
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Println("ERROR reading TLE file:", err)
			os.Exit(1)
		}
		text = string(data)
		source = os.Args[1]
	}

	records, err := tle.Parse(strings.NewReader(text), logger)
	if err != nil {
		fmt.Println("ERROR parsing TLE:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d TLE records from %s\n", len(records), source)
	if len(records) == 0 {
		os.Exit(1)
	}

	rec := records[0]
	fmt.Printf("First record: %s (catalog %d) epoch %v\n", rec.Name, rec.CatalogID, rec.Epoch)

	prop := propagation.NewPropagator(propagation.Config{Workers: runtime.NumCPU()}, logger)

	start := time.Now().UTC()
	fmt.Printf("Propagation start: %v\n", start.Format(time.RFC3339))

	samples, err := prop.Propagate(context.Background(), rec, start, 90, 60)
	if err != nil {
		fmt.Println("ERROR propagating:", err)
		os.Exit(1)
	}
	fmt.Printf("Propagated %d samples over 90 minutes\n", len(samples))
	for i := 0; i < len(samples); i += 15 {
		s := samples[i]
		fmt.Printf("  t=%s lat=%.4f lon=%.4f alt=%.2fkm\n",
			s.Timestamp.Format(time.RFC3339), s.LatDeg, s.LonDeg, s.AltKm)
	}

	table, err := flux.Default()
	if err != nil {
		fmt.Println("ERROR loading flux table:", err)
		os.Exit(1)
	}
	incDeg, err := rec.InclinationDeg()
	if err != nil {
		fmt.Println("ERROR reading inclination:", err)
		os.Exit(1)
	}
	altKm := samples[0].AltKm
	fluxVal, outcome, err := table.Query(altKm, incDeg, 1, 10)
	if err != nil {
		fmt.Println("ERROR querying flux:", err)
		os.Exit(1)
	}
	fmt.Printf("Flux at alt=%.1fkm inc=%.2f° bin=[1,10]cm: %.3e /m2/yr (%s)\n",
		altKm, incDeg, fluxVal, outcome)

	prob, err := risk.CollisionProbability(10, 1, fluxVal)
	if err != nil {
		fmt.Println("ERROR computing probability:", err)
		os.Exit(1)
	}
	fmt.Printf("Collision probability (10 m2, 1 yr): %.3e -> %s\n",
		prob, risk.ClassifyProbability(prob))

	own := risk.Position{LatDeg: samples[0].LatDeg, LonDeg: samples[0].LonDeg, AltKm: samples[0].AltKm}
	candidates := []risk.Candidate{
		{CatalogID: 90001, Name: "DEBRIS-A", Position: risk.Position{LatDeg: own.LatDeg + 0.2, LonDeg: own.LonDeg, AltKm: own.AltKm + 5}},
		{CatalogID: 90002, Name: "DEBRIS-B", Position: risk.Position{LatDeg: own.LatDeg + 3, LonDeg: own.LonDeg - 2, AltKm: own.AltKm + 80}},
	}
	assessments, err := risk.Assess(own, candidates, 1000)
	if err != nil {
		fmt.Println("ERROR assessing proximity:", err)
		os.Exit(1)
	}
	for _, a := range assessments {
		fmt.Printf("  %s (catalog %d): dist=%.1fkm vrel=%.2fkm/s risk=%.3f threat=%s\n",
			a.Candidate.Name, a.Candidate.CatalogID, a.DistanceKm, a.RelativeVelocityKmS, a.ProximityRiskFactor, a.Threat)
	}
	summary := risk.Summarize(assessments)
	fmt.Printf("\nAssessed %d candidates, %d high risk, nearest %.1fkm\n",
		summary.Assessed, summary.HighRisk, summary.NearestKm)
}
