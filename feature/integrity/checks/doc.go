// Package checks holds the individual consistency checks run by the integrity feature.
package checks
