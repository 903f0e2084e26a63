// Package detector compares freshly filtered listings against price history
// and reports the ones whose all-in price moved since the last observation.
package detector
