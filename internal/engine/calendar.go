package engine

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-sobriety/internal/config"
)

// CalendarBuilder renders the milestone schedule of a sobriety period as an
// iCalendar feed that any calendar client can subscribe to.
type CalendarBuilder struct {
	Clock Clock // Source of DTSTAMP and of the elapsed day count.

	// FormatSummary allows the caller to inject localized event titles.
	FormatSummary func(m Milestone, achieved bool) string

	// FormatDescription localizes the event description.
	FormatDescription func(m Milestone) string
}

// Build returns one all-day event per milestone, dated on the day the
// milestone is (or will be) reached. When reminderTrigger is set, upcoming
// milestones carry a DISPLAY alarm with that ISO 8601 trigger.
func (c *CalendarBuilder) Build(start time.Time, reminderTrigger string) ([]byte, error) {
	now := c.Clock.Now()
	states := Evaluate(Calculate(start, now).TotalDays, start)

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986 refresh hint.
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	uidBase := calendarUID(start)
	upcoming := 0

	for _, st := range states {
		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, uidBase, st.ID, config.ICalDomain))

		summary := fmt.Sprintf(config.FallbackSummary, st.Icon, st.Name)
		if c.FormatSummary != nil {
			summary = c.FormatSummary(st.Milestone, st.Achieved)
		}
		event.Props.SetText(config.PropSummary, summary)
		description := st.Description
		if c.FormatDescription != nil {
			description = c.FormatDescription(st.Milestone)
		}
		event.Props.SetText(config.PropDescription, description)

		// The projection is fixed-width, the same instant Evaluate reports.
		reached := start.Add(time.Duration(st.Days) * day)
		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(reached)
		event.Props.Set(dtStartProp)
		event.Props.Set(dtStampProp)

		if !st.Achieved {
			upcoming++
			if reminderTrigger != "" {
				addAlarm(event, reminderTrigger, summary)
			}
		}

		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	slog.Debug(config.MsgCalendarBuilt,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyCount, len(states),
		config.LogKeyUpcoming, upcoming,
	)
	return buf.Bytes(), nil
}

// StubCalendar is the minimal valid feed served while no sobriety period is
// active, so that subscribed clients do not flag the feed as broken.
func StubCalendar() []byte {
	return []byte(config.StubVCalendar)
}

// calendarUID derives a stable identifier from the start instant so that
// events keep their UID across refreshes and change when the period resets.
func calendarUID(start time.Time) string {
	input := fmt.Sprintf(config.FormatHashInput, start.UTC().Format(time.RFC3339Nano), config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", hash[:config.UIDHashLength])
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set trigger manually to avoid "VALUE=TEXT" param
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}
