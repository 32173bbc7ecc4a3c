package stats

import (
	"math"
	"sort"

	"spring-change/core/reconcile"

	"gonum.org/v1/gonum/stat"
)

// Overview holds the headline metrics of an analysis.
type Overview struct {
	TotalCars     int `json:"total_cars"`
	NewCars       int `json:"new_cars"`
	SpringChanged int `json:"spring_changed"`
	Unchanged     int `json:"unchanged"`

	// SpringChangedPercent is SpringChanged over TotalCars, in percent.
	SpringChangedPercent float64 `json:"spring_changed_percent"`

	// FleetMassChange is the sum of all mass differences, in kg.
	FleetMassChange float64 `json:"fleet_mass_change"`
	// FleetMassTotal is the sum of new and old masses, in kg.
	FleetMassTotal float64 `json:"fleet_mass_total"`
	// FleetMassChangePercent is FleetMassChange over FleetMassTotal, in percent.
	FleetMassChangePercent float64 `json:"fleet_mass_change_percent"`
}

// Bucket is one category of a distribution.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary describes the mass differences of matched records.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P25    float64 `json:"p25"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
}

// Analysis bundles everything computed from a set of records.
type Analysis struct {
	Overview               Overview `json:"overview"`
	MassDistribution       []Bucket `json:"mass_distribution"`
	ChangeTypeDistribution []Bucket `json:"change_type_distribution"`
	MassDifference         Summary  `json:"mass_difference"`
}

// Compute derives the full analysis from reconciled records.
func Compute(records []reconcile.Record) Analysis {
	return Analysis{
		Overview:               ComputeOverview(records),
		MassDistribution:       MassDistribution(records),
		ChangeTypeDistribution: ChangeTypeDistribution(records),
		MassDifference:         SummarizeMatched(records),
	}
}

// ComputeOverview computes the headline metrics.
func ComputeOverview(records []reconcile.Record) Overview {
	var o Overview
	o.TotalCars = len(records)

	var newMass, oldMass float64
	for _, r := range records {
		switch r.ChangeType {
		case reconcile.ChangeNew:
			o.NewCars++
		case reconcile.ChangeSpringChanged:
			o.SpringChanged++
		case reconcile.ChangeUnchanged:
			o.Unchanged++
		}
		o.FleetMassChange += r.MassDifference
		newMass += r.NewMass
		oldMass += r.OldMass
	}
	o.FleetMassTotal = newMass + oldMass

	o.SpringChangedPercent = percent(float64(o.SpringChanged), float64(o.TotalCars))
	o.FleetMassChangePercent = percent(o.FleetMassChange, o.FleetMassTotal)
	return o
}

// MassDistribution counts records per mass status, in reconcile.MassStatuses order.
func MassDistribution(records []reconcile.Record) []Bucket {
	counts := make(map[reconcile.MassStatus]int, len(reconcile.MassStatuses))
	for _, r := range records {
		counts[r.MassStatus]++
	}
	out := make([]Bucket, 0, len(reconcile.MassStatuses))
	for _, s := range reconcile.MassStatuses {
		out = append(out, Bucket{Label: string(s), Count: counts[s]})
	}
	return out
}

// ChangeTypeDistribution counts records per change type, in reconcile.ChangeTypes order.
func ChangeTypeDistribution(records []reconcile.Record) []Bucket {
	counts := make(map[reconcile.ChangeType]int, len(reconcile.ChangeTypes))
	for _, r := range records {
		counts[r.ChangeType]++
	}
	out := make([]Bucket, 0, len(reconcile.ChangeTypes))
	for _, c := range reconcile.ChangeTypes {
		out = append(out, Bucket{Label: string(c), Count: counts[c]})
	}
	return out
}

// SummarizeMatched describes the mass differences of every record that is not New.
func SummarizeMatched(records []reconcile.Record) Summary {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		if r.ChangeType == reconcile.ChangeNew {
			continue
		}
		values = append(values, r.MassDifference)
	}
	return Summarize(values)
}

// Summarize computes descriptive statistics. The standard deviation is the sample
// one (n-1) and percentiles interpolate linearly between closest ranks.
// An empty input yields a zero Summary.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := sorted[0], 0.0
	if n > 1 {
		mean, std = stat.MeanStdDev(sorted, nil)
	}

	return Summary{
		Count:  n,
		Mean:   mean,
		StdDev: std,
		Min:    sorted[0],
		Max:    sorted[n-1],
		P25:    Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		P75:    Quantile(sorted, 0.75),
	}
}

// Quantile returns the q-th quantile of an ascending slice, interpolating
// linearly at position q*(n-1). gonum's stat.Quantile only offers the empirical
// and LinInterp (q*n based) estimators, which disagree on small samples.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}
