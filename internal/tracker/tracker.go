// Package tracker keeps the live view of the active sobriety period up to
// date: it recomputes the elapsed time every tick, records milestones as they
// are reached and publishes the calendar feed and the JSON status.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tartampluch/go-sobriety/internal/config"
	"github.com/tartampluch/go-sobriety/internal/engine"
	"github.com/tartampluch/go-sobriety/internal/store"
)

// RecordStore is the part of the record store the tracker depends on.
type RecordStore interface {
	ActiveRecord(ctx context.Context) (*store.Record, error)
	RecordMilestone(ctx context.Context, recordID string, m engine.Milestone, achievedAt time.Time) (store.MilestoneRecord, bool, error)
}

// Publisher receives the rendered outputs, typically the HTTP server.
type Publisher interface {
	Update(calendar []byte)
	UpdateStatus(status []byte)
}

// Snapshot is the state of the active sobriety period at one instant.
type Snapshot struct {
	Record        *store.Record           `json:"record,omitempty" toml:"record,omitempty"`
	Breakdown     engine.Breakdown        `json:"breakdown" toml:"breakdown"`
	Milestones    []engine.MilestoneState `json:"milestones" toml:"milestones"`
	Next          *engine.Milestone       `json:"next_milestone,omitempty" toml:"next_milestone,omitempty"`
	DaysRemaining int                     `json:"days_remaining" toml:"days_remaining"`
	Text          string                  `json:"text" toml:"text"`
	ComputedAt    time.Time               `json:"computed_at" toml:"computed_at"`
}

// Achieved returns the number of milestones reached in the snapshot.
func (s *Snapshot) Achieved() int {
	n := 0
	for _, st := range s.Milestones {
		if st.Achieved {
			n++
		}
	}
	return n
}

// Options configure a Tracker. Zero values fall back to the defaults.
type Options struct {
	Clock     engine.Clock
	Publisher Publisher

	// Format renders the breakdown for display. Defaults to engine.Format.
	Format func(engine.Breakdown) string

	// NoRecordText is shown when there is no active record.
	NoRecordText string

	// FormatSummary and FormatDescription localize the calendar events.
	FormatSummary     func(m engine.Milestone, achieved bool) string
	FormatDescription func(m engine.Milestone) string

	TickInterval    time.Duration
	ReloadInterval  time.Duration
	ReminderTrigger string
}

// Tracker drives the periodic recomputation. Snapshot is safe to call from
// any goroutine; Refresh and Tick are meant to be called from Run.
type Tracker struct {
	store     RecordStore
	clock     engine.Clock
	publisher Publisher
	format    func(engine.Breakdown) string
	noRecord  string
	calendar  *engine.CalendarBuilder

	snapshot atomic.Pointer[Snapshot]

	mu       sync.Mutex
	tick     time.Duration
	reload   time.Duration
	trigger  string
	calKey   string
	recordID string
	recorded map[string]bool // milestone IDs persisted for recordID

	configChan  chan struct{}
	refreshChan chan struct{}
}

// New wires a tracker on top of the given store.
func New(s RecordStore, opts Options) *Tracker {
	if opts.Clock == nil {
		opts.Clock = engine.RealClock{}
	}
	if opts.Format == nil {
		opts.Format = engine.Format
	}
	if opts.NoRecordText == "" {
		opts.NoRecordText = config.MsgNoActiveRecord
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = config.DefaultTickInterval
	}
	if opts.ReloadInterval <= 0 {
		opts.ReloadInterval = config.DefaultReloadInterval
	}

	return &Tracker{
		store:     s,
		clock:     opts.Clock,
		publisher: opts.Publisher,
		format:    opts.Format,
		noRecord:  opts.NoRecordText,
		calendar: &engine.CalendarBuilder{
			Clock:             opts.Clock,
			FormatSummary:     opts.FormatSummary,
			FormatDescription: opts.FormatDescription,
		},
		tick:        opts.TickInterval,
		reload:      opts.ReloadInterval,
		trigger:     opts.ReminderTrigger,
		recorded:    make(map[string]bool),
		configChan:  make(chan struct{}, config.ChannelBufferSize),
		refreshChan: make(chan struct{}, config.ChannelBufferSize),
	}
}

// Snapshot returns the latest computed state, or nil before the first Refresh.
func (t *Tracker) Snapshot() *Snapshot {
	return t.snapshot.Load()
}

// Configure applies new intervals and reminder trigger. A running tracker
// picks them up on its next loop iteration.
func (t *Tracker) Configure(tick, reload time.Duration, trigger string) {
	t.mu.Lock()
	if tick > 0 {
		t.tick = tick
	}
	if reload > 0 {
		t.reload = reload
	}
	if trigger != t.trigger {
		t.trigger = trigger
		t.calKey = "" // force a calendar rebuild
	}
	t.mu.Unlock()

	select {
	case t.configChan <- struct{}{}:
	default:
	}
	t.requestRefresh()
}

// Refresh reloads the active record from the store, persists newly reached
// milestones and publishes fresh outputs. On a store error the previous
// snapshot is kept.
func (t *Tracker) Refresh(ctx context.Context) error {
	log := slog.With(config.LogKeyComponent, config.CompTracker)

	rec, err := t.store.ActiveRecord(ctx)
	if err != nil {
		log.Error(config.MsgRefreshFailed, config.LogKeyError, err)
		return fmt.Errorf("%s: %w", config.ErrLoadRecord, err)
	}

	if rec == nil {
		log.Debug(config.MsgNoActiveRecord)
		snap := &Snapshot{Text: t.noRecord, ComputedAt: t.clock.Now()}
		t.resetRecorded("")
		t.publishCalendar(nil, snap)
		t.setSnapshot(snap)
		return nil
	}

	snap := t.compute(rec, t.clock.Now())
	log.Debug(config.MsgRefresh,
		config.LogKeyRecordID, rec.ID,
		config.LogKeyTotalDays, snap.Breakdown.TotalDays,
	)

	t.resetRecorded(rec.ID)
	saveErr := t.persistMilestones(ctx, rec.ID, snap)

	t.publishCalendar(rec, snap)
	t.setSnapshot(snap)
	return saveErr
}

// Tick recomputes the snapshot for the cached record from the clock without
// touching the store. When a new milestone is crossed a Refresh is requested
// so that it gets persisted.
func (t *Tracker) Tick() *Snapshot {
	prev := t.snapshot.Load()
	if prev == nil || prev.Record == nil {
		return prev
	}

	snap := t.compute(prev.Record, t.clock.Now())
	if snap.Achieved() != prev.Achieved() {
		t.requestRefresh()
	}
	t.setSnapshot(snap)
	return snap
}

// Run refreshes once, then ticks and reloads on their intervals until ctx
// is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	log := slog.With(config.LogKeyComponent, config.CompTracker)

	_ = t.Refresh(ctx)

	tickEvery, reloadEvery := t.intervals()
	ticker := time.NewTicker(tickEvery)
	defer ticker.Stop()
	reloader := time.NewTicker(reloadEvery)
	defer reloader.Stop()

	log.Info(config.MsgWorkerStart,
		config.LogKeyInterval, tickEvery,
		config.LogKeyReload, reloadEvery,
	)

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return

		case <-t.configChan:
			newTick, newReload := t.intervals()
			if newTick != tickEvery {
				tickEvery = newTick
				ticker.Reset(tickEvery)
			}
			if newReload != reloadEvery {
				reloadEvery = newReload
				reloader.Reset(reloadEvery)
			}

		case <-t.refreshChan:
			_ = t.Refresh(ctx)

		case <-reloader.C:
			_ = t.Refresh(ctx)

		case <-ticker.C:
			t.Tick()
		}
	}
}

func (t *Tracker) compute(rec *store.Record, now time.Time) *Snapshot {
	b := engine.Calculate(rec.StartDate, now)
	snap := &Snapshot{
		Record:        rec,
		Breakdown:     b,
		Milestones:    engine.Evaluate(b.TotalDays, rec.StartDate),
		DaysRemaining: engine.DaysRemaining(b.TotalDays),
		Text:          t.format(b),
		ComputedAt:    now,
	}
	if next, ok := engine.FindNext(b.TotalDays); ok {
		snap.Next = &next
	}
	return snap
}

// persistMilestones stores every achieved milestone not yet known to be
// persisted for recordID. Failures are retried on the next refresh.
func (t *Tracker) persistMilestones(ctx context.Context, recordID string, snap *Snapshot) error {
	var errs []error
	for _, st := range snap.Milestones {
		if !st.Achieved || t.isRecorded(st.ID) {
			continue
		}

		_, created, err := t.store.RecordMilestone(ctx, recordID, st.Milestone, st.AchievedAt)
		if err != nil {
			slog.Warn(config.ErrSaveMilestone,
				config.LogKeyComponent, config.CompTracker,
				config.LogKeyMilestone, st.ID,
				config.LogKeyError, err,
			)
			errs = append(errs, fmt.Errorf("%s %q: %w", config.ErrSaveMilestone, st.ID, err))
			continue
		}
		t.markRecorded(st.ID)

		if created {
			slog.Info(config.MsgMilestoneReached,
				config.LogKeyComponent, config.CompTracker,
				config.LogKeyRecordID, recordID,
				config.LogKeyMilestone, st.ID,
				config.LogKeyDays, st.Days,
			)
		}
	}
	return errors.Join(errs...)
}

// publishCalendar re-renders the feed when the record, the achieved set or
// the reminder trigger changed.
func (t *Tracker) publishCalendar(rec *store.Record, snap *Snapshot) {
	if t.publisher == nil {
		return
	}

	t.mu.Lock()
	trigger := t.trigger
	key := ""
	if rec != nil {
		key = fmt.Sprintf("%s|%s|%d|%s", rec.ID, rec.StartDate.Format(config.DateFormatStorage), snap.Achieved(), trigger)
	}
	changed := key != t.calKey || key == ""
	t.calKey = key
	t.mu.Unlock()

	if changed {
		if rec == nil {
			t.publisher.Update(engine.StubCalendar())
		} else if data, err := t.calendar.Build(rec.StartDate, trigger); err != nil {
			slog.Error(config.ErrICalEncode,
				config.LogKeyComponent, config.CompTracker,
				config.LogKeyError, err,
			)
			t.mu.Lock()
			t.calKey = ""
			t.mu.Unlock()
		} else {
			t.publisher.Update(data)
		}
	}
}

// setSnapshot replaces the current snapshot and publishes its JSON form.
func (t *Tracker) setSnapshot(snap *Snapshot) {
	t.snapshot.Store(snap)
	if t.publisher == nil {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error(config.ErrStatusEncode,
			config.LogKeyComponent, config.CompTracker,
			config.LogKeyError, err,
		)
		return
	}
	t.publisher.UpdateStatus(data)
}

func (t *Tracker) intervals() (time.Duration, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tick, t.reload
}

func (t *Tracker) requestRefresh() {
	select {
	case t.refreshChan <- struct{}{}:
	default:
	}
}

// resetRecorded forgets the persisted milestone set when the active record changes.
func (t *Tracker) resetRecorded(recordID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.recordID != recordID {
		t.recordID = recordID
		t.recorded = make(map[string]bool)
	}
}

func (t *Tracker) isRecorded(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recorded[id]
}

func (t *Tracker) markRecorded(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recorded[id] = true
}
