// Package store persists sobriety records and the milestones reached during
// each of them.
package store

import (
	"errors"
	"time"

	"github.com/tartampluch/go-sobriety/internal/config"
)

var (
	// ErrRecordNotFound is returned when no sobriety record has the given ID.
	ErrRecordNotFound = errors.New(config.ErrRecordNotFound)

	// ErrMilestoneNotFound is returned when no milestone record has the given ID.
	ErrMilestoneNotFound = errors.New(config.ErrMilestoneNotFound)
)

// Record is one sobriety period. At most one record is active at a time.
type Record struct {
	ID            string    `json:"id" toml:"id"`
	StartDate     time.Time `json:"start_date" toml:"start_date"`
	SubstanceType string    `json:"substance_type" toml:"substance_type"`
	IsActive      bool      `json:"is_active" toml:"is_active"`
	Notes         string    `json:"notes,omitempty" toml:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at" toml:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" toml:"updated_at"`
}

// NewRecord holds the input for CreateRecord.
type NewRecord struct {
	StartDate     time.Time
	SubstanceType string // Defaults to config.DefaultSubstance.
	Notes         string
}

// RecordUpdate lists the fields to change on an existing record.
// Nil fields are left untouched.
type RecordUpdate struct {
	StartDate     *time.Time
	SubstanceType *string
	Notes         *string
}

// MilestoneRecord is the persisted trace of a milestone reached during a
// sobriety period.
type MilestoneRecord struct {
	ID            string    `json:"id"`
	RecordID      string    `json:"sobriety_record_id"`
	MilestoneType string    `json:"milestone_type"` // engine.Milestone.ID
	MilestoneName string    `json:"milestone_name"`
	DaysAchieved  int       `json:"days_achieved"`
	AchievedAt    time.Time `json:"achieved_at"`
	Celebrated    bool      `json:"celebrated"`
	CreatedAt     time.Time `json:"created_at"`
}
