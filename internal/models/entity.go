package models

import (
	"fmt"
	"time"
)

// HistoryPolicy controls how much of an entity's filing history is pulled.
type HistoryPolicy string

const (
	// PolicyLatestOnly pulls only the most recent filing each cycle.
	PolicyLatestOnly HistoryPolicy = "latest-only"
	// PolicyFullHistory pulls every filing on record.
	PolicyFullHistory HistoryPolicy = "full-history"
	// PolicySkip excludes the entity from collection entirely.
	PolicySkip HistoryPolicy = "skip"
)

// Valid reports whether the policy is one of the known values.
func (p HistoryPolicy) Valid() bool {
	switch p {
	case PolicyLatestOnly, PolicyFullHistory, PolicySkip:
		return true
	}
	return false
}

// TrackedEntity is one row of the master registry: an institutional filer
// whose holdings disclosures are collected and tracked.
type TrackedEntity struct {
	CIK            string        `json:"cik" badgerhold:"key"`
	Name           string        `json:"name"`
	Policy         HistoryPolicy `json:"policy"`
	LastFilingDate time.Time     `json:"last_filing_date,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Validate checks the registry row for required fields.
func (e *TrackedEntity) Validate() error {
	if e.CIK == "" {
		return fmt.Errorf("entity CIK is required")
	}
	if e.Name == "" {
		return fmt.Errorf("entity name is required for CIK %s", e.CIK)
	}
	if !e.Policy.Valid() {
		return fmt.Errorf("entity %s has unknown history policy %q", e.CIK, e.Policy)
	}
	return nil
}
