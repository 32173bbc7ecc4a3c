// Package stats aggregates reconciled records into the figures shown on the analysis
// overview: headline counts, fleet mass change, the distribution of mass statuses and
// change types, and descriptive statistics of the mass differences of matched rows.
package stats
