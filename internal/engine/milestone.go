package engine

import "time"

// Milestone is a named checkpoint reached after a number of elapsed days.
type Milestone struct {
	ID          string `json:"id" toml:"id"`
	Name        string `json:"name" toml:"name"`
	Description string `json:"description" toml:"description"`
	Days        int    `json:"days" toml:"days"`
	Icon        string `json:"icon" toml:"icon"`
}

// MilestoneState is a milestone evaluated against an elapsed day count.
type MilestoneState struct {
	Milestone

	Achieved bool `json:"achieved" toml:"achieved"`

	// AchievedAt is the projected instant start + Days*24h, not the time the
	// evaluation ran. Zero when the milestone is not achieved.
	AchievedAt time.Time `json:"achieved_at,omitzero" toml:"achieved_at"`
}

// milestoneTable is ordered by strictly increasing Days.
var milestoneTable = [...]Milestone{
	{ID: "1_day", Name: "24 Hours", Description: "First day complete!", Days: 1, Icon: "🌟"},
	{ID: "3_days", Name: "3 Days", Description: "Three days strong!", Days: 3, Icon: "💪"},
	{ID: "1_week", Name: "1 Week", Description: "One week milestone!", Days: 7, Icon: "🎯"},
	{ID: "2_weeks", Name: "2 Weeks", Description: "Two weeks of progress!", Days: 14, Icon: "🏆"},
	{ID: "1_month", Name: "1 Month", Description: "One month accomplished!", Days: 30, Icon: "🥇"},
	{ID: "2_months", Name: "2 Months", Description: "Two months of strength!", Days: 60, Icon: "⭐"},
	{ID: "3_months", Name: "3 Months", Description: "Quarter year milestone!", Days: 90, Icon: "🎖️"},
	{ID: "6_months", Name: "6 Months", Description: "Half year of sobriety!", Days: 180, Icon: "🏅"},
	{ID: "9_months", Name: "9 Months", Description: "Nine months strong!", Days: 270, Icon: "💎"},
	{ID: "1_year", Name: "1 Year", Description: "One full year!", Days: 365, Icon: "👑"},
	{ID: "18_months", Name: "18 Months", Description: "A year and a half!", Days: 548, Icon: "🌈"},
	{ID: "2_years", Name: "2 Years", Description: "Two years of freedom!", Days: 730, Icon: "🎊"},
	{ID: "3_years", Name: "3 Years", Description: "Three years accomplished!", Days: 1095, Icon: "🎉"},
	{ID: "5_years", Name: "5 Years", Description: "Five years of sobriety!", Days: 1825, Icon: "🏰"},
	{ID: "10_years", Name: "10 Years", Description: "A decade of strength!", Days: 3650, Icon: "🌟"},
}

// Milestones returns a copy of the milestone table in ascending day order.
func Milestones() []Milestone {
	out := make([]Milestone, len(milestoneTable))
	copy(out, milestoneTable[:])
	return out
}

// MilestoneByID looks up a table entry by its identifier.
func MilestoneByID(id string) (Milestone, bool) {
	for _, m := range milestoneTable {
		if m.ID == id {
			return m, true
		}
	}
	return Milestone{}, false
}

// Evaluate marks every milestone as achieved or not for the given elapsed
// day count. The result follows table order.
func Evaluate(totalDays int, start time.Time) []MilestoneState {
	states := make([]MilestoneState, 0, len(milestoneTable))
	for _, m := range milestoneTable {
		st := MilestoneState{Milestone: m, Achieved: totalDays >= m.Days}
		if st.Achieved {
			// Fixed-width days: this marks a point in time, not a calendar span.
			st.AchievedAt = start.Add(time.Duration(m.Days) * day)
		}
		states = append(states, st)
	}
	return states
}

// FindNext returns the first milestone not yet reached after totalDays.
// The boolean is false once the last milestone has been passed.
func FindNext(totalDays int) (Milestone, bool) {
	for _, m := range milestoneTable {
		if m.Days > totalDays {
			return m, true
		}
	}
	return Milestone{}, false
}

// DaysRemaining returns the number of days until the next milestone, or 0
// when every milestone has been reached.
func DaysRemaining(totalDays int) int {
	next, ok := FindNext(totalDays)
	if !ok {
		return 0
	}
	if totalDays < 0 {
		totalDays = 0
	}
	return next.Days - totalDays
}
