package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/tally/internal/model"
)

type EntryStore struct {
	db *sql.DB
}

func NewEntryStore(db *sql.DB) *EntryStore {
	return &EntryStore{db: db}
}

const entryCols = `id, tracker_id, date, note, photo_url`

func scanEntry(scanner interface{ Scan(...any) error }) (*model.TrackerEntry, error) {
	var e model.TrackerEntry
	var note, photoURL sql.NullString

	if err := scanner.Scan(&e.ID, &e.TrackerID, &e.Date, &note, &photoURL); err != nil {
		return nil, err
	}
	if note.Valid {
		e.Note = &note.String
	}
	if photoURL.Valid {
		e.PhotoURL = &photoURL.String
	}
	return &e, nil
}

// Create inserts a completion record. Returns ErrDuplicateEntry when an
// entry already exists for the same (trackerID, date) pair.
func (s *EntryStore) Create(trackerID int64, date string, note, photoURL *string) (*model.TrackerEntry, error) {
	var n, p sql.NullString
	if note != nil {
		n = sql.NullString{String: *note, Valid: true}
	}
	if photoURL != nil {
		p = sql.NullString{String: *photoURL, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO tracker_entries (tracker_id, date, note, photo_url) VALUES (?, ?, ?, ?)`,
		trackerID, date, n, p,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEntry
	}
	if err != nil {
		return nil, fmt.Errorf("insert tracker entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// List returns all entries, unfiltered. Acceptable only because data volume
// stays small; there is no pagination anywhere in this API.
func (s *EntryStore) List() ([]model.TrackerEntry, error) {
	rows, err := s.db.Query(`SELECT ` + entryCols + ` FROM tracker_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tracker entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// ListByDate returns entries whose date exactly matches the given
// YYYY-MM-DD string.
func (s *EntryStore) ListByDate(date string) ([]model.TrackerEntry, error) {
	rows, err := s.db.Query(`SELECT `+entryCols+` FROM tracker_entries WHERE date = ? ORDER BY id`, date)
	if err != nil {
		return nil, fmt.Errorf("list entries by date: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// ListByMonth returns entries whose date starts with the literal prefix
// "YYYY-MM-". This is a string prefix match, not a calendar computation:
// month "2024-05" matches "2024-05-31" but not "2024-052".
func (s *EntryStore) ListByMonth(month string) ([]model.TrackerEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+entryCols+` FROM tracker_entries WHERE date LIKE ? || '-%' ORDER BY id`,
		month,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries by month: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]model.TrackerEntry, error) {
	var entries []model.TrackerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tracker entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *EntryStore) GetByID(id int64) (*model.TrackerEntry, error) {
	row := s.db.QueryRow(`SELECT `+entryCols+` FROM tracker_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tracker entry: %w", err)
	}
	return e, nil
}

// Update applies only the set fields of the patch and returns the full
// updated row. A set field holding nil writes NULL, which clears the
// nullable note and photo_url columns. Moving an entry onto an occupied
// (trackerID, date) pair returns ErrDuplicateEntry.
func (s *EntryStore) Update(id int64, p model.TrackerEntryPatch) (*model.TrackerEntry, error) {
	var sets []string
	var args []any

	if p.TrackerID.Set {
		sets = append(sets, "tracker_id = ?")
		args = append(args, p.TrackerID.Value)
	}
	if p.Date.Set {
		sets = append(sets, "date = ?")
		args = append(args, p.Date.Value)
	}
	if p.Note.Set {
		sets = append(sets, "note = ?")
		args = append(args, p.Note.Value)
	}
	if p.PhotoURL.Set {
		sets = append(sets, "photo_url = ?")
		args = append(args, p.PhotoURL.Value)
	}
	if len(sets) == 0 {
		return s.GetByID(id)
	}

	args = append(args, id)
	_, err := s.db.Exec(`UPDATE tracker_entries SET `+joinSets(sets)+` WHERE id = ?`, args...)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEntry
	}
	if err != nil {
		return nil, fmt.Errorf("update tracker entry: %w", err)
	}
	return s.GetByID(id)
}

func (s *EntryStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM tracker_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete tracker entry: %w", err)
	}
	return nil
}

// DeleteAll removes every entry row. Used by the reset endpoint.
func (s *EntryStore) DeleteAll() error {
	if _, err := s.db.Exec(`DELETE FROM tracker_entries`); err != nil {
		return fmt.Errorf("delete all tracker entries: %w", err)
	}
	return nil
}
