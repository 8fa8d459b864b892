package models

import (
	"time"
)

// Gender of a profile
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Opposite returns the gender the default orientation rule pairs with
func (g Gender) Opposite() Gender {
	if g == GenderMale {
		return GenderFemale
	}
	return GenderMale
}

// HabitUsage is the tri-state (plus unknown) usage level for a habit
type HabitUsage string

const (
	HabitUsageYes        HabitUsage = "yes"
	HabitUsageNo         HabitUsage = "no"
	HabitUsageOccasional HabitUsage = "occasional"
	HabitUsageUnknown    HabitUsage = "unknown"
)

// ProfileSnapshot is the immutable read view of one user at scoring time.
// The engine never mutates it; it is fetched fresh per request from the
// profile store and discarded after the response is produced.
type ProfileSnapshot struct {
	ID            string     `json:"id" db:"id"`
	Gender        Gender     `json:"gender" db:"gender"`
	DateOfBirth   time.Time  `json:"date_of_birth" db:"date_of_birth"`
	MaritalStatus string     `json:"marital_status" db:"marital_status"`
	Religion      string     `json:"religion" db:"religion"`
	Community     string     `json:"community" db:"community"`
	Diet          string     `json:"diet" db:"diet"`
	Alcohol       HabitUsage `json:"alcohol" db:"alcohol"`
	Tobacco       HabitUsage `json:"tobacco" db:"tobacco"`
	Education     string     `json:"education" db:"education"`
	Profession    string     `json:"profession" db:"profession"`
	IncomeBracket string     `json:"income_bracket" db:"income_bracket"`
	Country       string     `json:"country" db:"country"`
	State         string     `json:"state" db:"state"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	IsApproved    bool       `json:"is_approved" db:"is_approved"`
	IsVisible     bool       `json:"is_visible" db:"is_visible"`
	LastActiveAt  time.Time  `json:"last_active_at" db:"last_active_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// AgeAt derives the profile's age in whole years at the given instant
func (p *ProfileSnapshot) AgeAt(now time.Time) int {
	if p.DateOfBirth.IsZero() {
		return 0
	}
	age := now.Year() - p.DateOfBirth.Year()
	// birthday not reached yet this year
	if now.YearDay() < p.DateOfBirth.YearDay() {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// Completeness counts how many scoring-relevant fields are populated.
// Used as the first ranking tie-breaker between equal composite scores.
func (p *ProfileSnapshot) Completeness() int {
	count := 0
	if !p.DateOfBirth.IsZero() {
		count++
	}
	for _, v := range []string{
		p.MaritalStatus,
		p.Religion,
		p.Community,
		p.Diet,
		p.Education,
		p.Profession,
		p.IncomeBracket,
		p.Country,
		p.State,
	} {
		if v != "" {
			count++
		}
	}
	if p.Alcohol != "" && p.Alcohol != HabitUsageUnknown {
		count++
	}
	if p.Tobacco != "" && p.Tobacco != HabitUsageUnknown {
		count++
	}
	return count
}

// Scoreable reports whether the profile may appear in results at all
func (p *ProfileSnapshot) Scoreable() bool {
	return p.IsActive && p.IsApproved && p.IsVisible
}

// PoolFilter describes the cheap predicates the repository applies when
// assembling a candidate pool, before any per-pair scoring happens.
type PoolFilter struct {
	Gender        Gender
	ExcludeUserID string
	Limit         int
}
