package engine_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-sobriety/internal/engine"
)

func TestCalendarBuilder_EventPerMilestone(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	b := &engine.CalendarBuilder{Clock: MockClock{CurrentTime: refNow}}

	ics, err := b.Build(start, "")
	require.NoError(t, err)

	icsStr := string(ics)
	assert.Contains(t, icsStr, "BEGIN:VCALENDAR", "Should start with VCALENDAR")
	assert.Equal(t, 15, strings.Count(icsStr, "BEGIN:VEVENT"), "One event per milestone")
	assert.NotContains(t, icsStr, "BEGIN:VALARM", "No reminder requested")

	// Projected dates: start + 1 day, + 1 week, + 10 years of fixed days.
	assert.Contains(t, icsStr, "DTSTART;VALUE=DATE:20250602")
	assert.Contains(t, icsStr, "DTSTART;VALUE=DATE:20250608")
	assert.Contains(t, icsStr, "DTSTART;VALUE=DATE:20350530")
}

func TestCalendarBuilder_RemindersOnlyForUpcoming(t *testing.T) {
	// 14 days elapsed: 24 Hours, 3 Days, 1 Week and 2 Weeks are behind.
	start := refNow.AddDate(0, 0, -14)
	b := &engine.CalendarBuilder{Clock: MockClock{CurrentTime: refNow}}

	ics, err := b.Build(start, "-P1D")
	require.NoError(t, err)

	icsStr := string(ics)
	assert.Equal(t, 11, strings.Count(icsStr, "BEGIN:VALARM"))
	assert.Contains(t, icsStr, "TRIGGER:-P1D", "Alarm trigger should match configuration")
	assert.Contains(t, icsStr, "ACTION:DISPLAY", "Alarm action should be DISPLAY")
}

func TestCalendarBuilder_SummaryFormatter(t *testing.T) {
	start := refNow.AddDate(0, 0, -2)
	b := &engine.CalendarBuilder{
		Clock: MockClock{CurrentTime: refNow},
		FormatSummary: func(m engine.Milestone, achieved bool) string {
			if achieved {
				return fmt.Sprintf("Done %s", m.ID)
			}
			return fmt.Sprintf("Soon %s", m.ID)
		},
		FormatDescription: func(m engine.Milestone) string {
			return "About " + m.ID
		},
	}

	ics, err := b.Build(start, "")
	require.NoError(t, err)

	icsStr := string(ics)
	assert.Contains(t, icsStr, "SUMMARY:Done 1_day")
	assert.Contains(t, icsStr, "SUMMARY:Soon 3_days")
	assert.Contains(t, icsStr, "DESCRIPTION:About 1_week")
}

func TestCalendarBuilder_StableUIDs(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := (&engine.CalendarBuilder{Clock: MockClock{CurrentTime: refNow}}).Build(start, "")
	require.NoError(t, err)
	later, err := (&engine.CalendarBuilder{Clock: MockClock{CurrentTime: refNow.Add(time.Hour)}}).Build(start, "")
	require.NoError(t, err)
	reset, err := (&engine.CalendarBuilder{Clock: MockClock{CurrentTime: refNow}}).Build(start.AddDate(0, 1, 0), "")
	require.NoError(t, err)

	assert.Equal(t, uidLines(string(first)), uidLines(string(later)), "UIDs survive a refresh")
	assert.NotEqual(t, uidLines(string(first)), uidLines(string(reset)), "UIDs change with the start date")
}

func TestStubCalendar(t *testing.T) {
	stub := string(engine.StubCalendar())
	assert.True(t, strings.HasPrefix(stub, "BEGIN:VCALENDAR"))
	assert.Contains(t, stub, "END:VCALENDAR")
	assert.NotContains(t, stub, "BEGIN:VEVENT")
}

func uidLines(ics string) []string {
	var out []string
	for _, line := range strings.Split(ics, "\r\n") {
		if strings.HasPrefix(line, "UID:") {
			out = append(out, line)
		}
	}
	return out
}
