package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tartampluch/go-sobriety/internal/config"
	"github.com/tartampluch/go-sobriety/internal/engine"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS sobriety_records (
    id             TEXT PRIMARY KEY,
    start_date     TEXT NOT NULL,
    substance_type TEXT NOT NULL DEFAULT 'general',
    is_active      INTEGER NOT NULL DEFAULT 1,
    notes          TEXT NOT NULL DEFAULT '',
    created_at     TEXT NOT NULL,
    updated_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sobriety_records_active
    ON sobriety_records (is_active, created_at);

CREATE TABLE IF NOT EXISTS milestones (
    id                 TEXT PRIMARY KEY,
    sobriety_record_id TEXT NOT NULL REFERENCES sobriety_records(id) ON DELETE CASCADE,
    milestone_type     TEXT NOT NULL,
    milestone_name     TEXT NOT NULL,
    days_achieved      INTEGER NOT NULL,
    achieved_at        TEXT NOT NULL,
    celebrated         INTEGER NOT NULL DEFAULT 0,
    created_at         TEXT NOT NULL,
    UNIQUE(sobriety_record_id, milestone_type)
);
`

const recordColumns = `id, start_date, substance_type, is_active, notes, created_at, updated_at`

const milestoneColumns = `id, sobriety_record_id, milestone_type, milestone_name, days_achieved, achieved_at, celebrated, created_at`

// SQLiteStore implements the record store on a local SQLite database in WAL mode.
type SQLiteStore struct {
	db    *sql.DB
	clock engine.Clock
}

// Open opens (or creates) the database at path, enables WAL mode, foreign
// keys and busy timeout, and creates the schema if it does not exist.
func Open(ctx context.Context, path string, clock engine.Clock) (*SQLiteStore, error) {
	db, err := sql.Open(config.SQLDriver, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreOpen, err)
	}

	// SQLite only supports a single writer; one connection keeps the PRAGMAs
	// below applied to every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", config.SQLBusyTimeoutMs),
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %s: %w", config.ErrStoreOpen, p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: create schema: %w", config.ErrStoreOpen, err)
	}

	slog.Debug(config.MsgStoreOpened,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyPath, path,
	)
	return &SQLiteStore{db: db, clock: clock}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ActiveRecord returns the most recent active record, or nil when none is active.
func (s *SQLiteStore) ActiveRecord(ctx context.Context) (*Record, error) {
	q := `SELECT ` + recordColumns + ` FROM sobriety_records
		WHERE is_active = 1
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, q))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: active record: %w", err)
	}
	return &rec, nil
}

// GetRecord returns the record with the given ID.
func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (Record, error) {
	q := `SELECT ` + recordColumns + ` FROM sobriety_records WHERE id = ?`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("store: get record %q: %w", id, err)
	}
	return rec, nil
}

// CreateRecord deactivates any active record and inserts a new active one,
// in a single transaction.
func (s *SQLiteStore) CreateRecord(ctx context.Context, in NewRecord) (Record, error) {
	now := s.clock.Now().UTC()
	rec := Record{
		ID:            uuid.NewString(),
		StartDate:     in.StartDate.UTC(),
		SubstanceType: in.SubstanceType,
		IsActive:      true,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if rec.SubstanceType == "" {
		rec.SubstanceType = config.DefaultSubstance
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("store: begin tx for create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	res, err := tx.ExecContext(ctx,
		`UPDATE sobriety_records SET is_active = 0, updated_at = ? WHERE is_active = 1`,
		formatTime(now))
	if err != nil {
		return Record{}, fmt.Errorf("store: deactivate records: %w", err)
	}
	archived, _ := res.RowsAffected()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sobriety_records (`+recordColumns+`) VALUES (?, ?, ?, 1, ?, ?, ?)`,
		rec.ID, formatTime(rec.StartDate), rec.SubstanceType, rec.Notes, formatTime(now), formatTime(now))
	if err != nil {
		return Record{}, fmt.Errorf("store: insert record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("store: commit create: %w", err)
	}

	slog.Info(config.MsgRecordCreated,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyRecordID, rec.ID,
		config.LogKeyStart, rec.StartDate,
		config.LogKeySubstance, rec.SubstanceType,
		config.LogKeyArchived, archived,
	)
	return rec, nil
}

// UpdateRecord applies upd to the record with the given ID and returns the
// stored result.
func (s *SQLiteStore) UpdateRecord(ctx context.Context, id string, upd RecordUpdate) (Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("store: begin tx for update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	q := `SELECT ` + recordColumns + ` FROM sobriety_records WHERE id = ?`
	rec, err := scanRecord(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("store: load record %q: %w", id, err)
	}

	if upd.StartDate != nil {
		rec.StartDate = upd.StartDate.UTC()
	}
	if upd.SubstanceType != nil {
		rec.SubstanceType = *upd.SubstanceType
	}
	if upd.Notes != nil {
		rec.Notes = *upd.Notes
	}
	rec.UpdatedAt = s.clock.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE sobriety_records SET start_date = ?, substance_type = ?, notes = ?, updated_at = ? WHERE id = ?`,
		formatTime(rec.StartDate), rec.SubstanceType, rec.Notes, formatTime(rec.UpdatedAt), id)
	if err != nil {
		return Record{}, fmt.Errorf("store: update record %q: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("store: commit update: %w", err)
	}

	slog.Info(config.MsgRecordUpdated,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyRecordID, id,
	)
	return rec, nil
}

// Reset starts a new sobriety period now.
func (s *SQLiteStore) Reset(ctx context.Context, notes string) (Record, error) {
	if notes == "" {
		notes = config.DefaultResetNote
	}
	return s.CreateRecord(ctx, NewRecord{StartDate: s.clock.Now(), Notes: notes})
}

// History returns every record, newest first.
func (s *SQLiteStore) History(ctx context.Context) ([]Record, error) {
	q := `SELECT ` + recordColumns + ` FROM sobriety_records ORDER BY created_at DESC, rowid DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordMilestone stores that m was reached during the given record. It is
// idempotent: when the milestone is already stored the existing row is
// returned and created is false.
func (s *SQLiteStore) RecordMilestone(ctx context.Context, recordID string, m engine.Milestone, achievedAt time.Time) (rec MilestoneRecord, created bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return MilestoneRecord{}, false, fmt.Errorf("store: begin tx for milestone: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM sobriety_records WHERE id = ?`, recordID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return MilestoneRecord{}, false, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
	}
	if err != nil {
		return MilestoneRecord{}, false, fmt.Errorf("store: check record %q: %w", recordID, err)
	}

	now := s.clock.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO milestones (`+milestoneColumns+`) VALUES (?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(sobriety_record_id, milestone_type) DO NOTHING`,
		uuid.NewString(), recordID, m.ID, m.Name, m.Days, formatTime(achievedAt), formatTime(now))
	if err != nil {
		return MilestoneRecord{}, false, fmt.Errorf("store: insert milestone %q: %w", m.ID, err)
	}
	n, _ := res.RowsAffected()

	q := `SELECT ` + milestoneColumns + ` FROM milestones WHERE sobriety_record_id = ? AND milestone_type = ?`
	rec, err = scanMilestone(tx.QueryRowContext(ctx, q, recordID, m.ID))
	if err != nil {
		return MilestoneRecord{}, false, fmt.Errorf("store: load milestone %q: %w", m.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return MilestoneRecord{}, false, fmt.Errorf("store: commit milestone: %w", err)
	}

	if n > 0 {
		slog.Info(config.MsgMilestoneSaved,
			config.LogKeyComponent, config.CompStore,
			config.LogKeyRecordID, recordID,
			config.LogKeyMilestone, m.ID,
		)
	}
	return rec, n > 0, nil
}

// RecordMilestones lists the milestones stored for a record, in ascending
// day order.
func (s *SQLiteStore) RecordMilestones(ctx context.Context, recordID string) ([]MilestoneRecord, error) {
	q := `SELECT ` + milestoneColumns + ` FROM milestones
		WHERE sobriety_record_id = ?
		ORDER BY days_achieved ASC`
	rows, err := s.db.QueryContext(ctx, q, recordID)
	if err != nil {
		return nil, fmt.Errorf("store: milestones for %q: %w", recordID, err)
	}
	defer rows.Close()

	var out []MilestoneRecord
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan milestone: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CelebrateMilestone marks a stored milestone as celebrated.
func (s *SQLiteStore) CelebrateMilestone(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE milestones SET celebrated = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: celebrate milestone %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrMilestoneNotFound, id)
	}

	slog.Info(config.MsgCelebrated,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyMilestone, id,
	)
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec                     Record
		start, created, updated string
	)
	if err := row.Scan(&rec.ID, &start, &rec.SubstanceType, &rec.IsActive, &rec.Notes, &created, &updated); err != nil {
		return Record{}, err
	}

	var err error
	if rec.StartDate, err = parseTime(start); err != nil {
		return Record{}, err
	}
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return Record{}, err
	}
	if rec.UpdatedAt, err = parseTime(updated); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func scanMilestone(row rowScanner) (MilestoneRecord, error) {
	var (
		m                 MilestoneRecord
		achieved, created string
	)
	if err := row.Scan(&m.ID, &m.RecordID, &m.MilestoneType, &m.MilestoneName, &m.DaysAchieved, &achieved, &m.Celebrated, &created); err != nil {
		return MilestoneRecord{}, err
	}

	var err error
	if m.AchievedAt, err = parseTime(achieved); err != nil {
		return MilestoneRecord{}, err
	}
	if m.CreatedAt, err = parseTime(created); err != nil {
		return MilestoneRecord{}, err
	}
	return m, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(config.DateFormatStorage)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(config.DateFormatStorage, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: parse timestamp %q: %w", s, err)
	}
	return t, nil
}
