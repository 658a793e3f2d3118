package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/tally/internal/model"
)

type TrackerStore struct {
	db *sql.DB
}

func NewTrackerStore(db *sql.DB) *TrackerStore {
	return &TrackerStore{db: db}
}

const trackerCols = `id, name, family_id, color, description, "order", is_archived`

func scanTracker(scanner interface{ Scan(...any) error }) (*model.Tracker, error) {
	var t model.Tracker
	var familyID sql.NullInt64
	var description sql.NullString
	var archived int

	err := scanner.Scan(&t.ID, &t.Name, &familyID, &t.Color, &description, &t.Order, &archived)
	if err != nil {
		return nil, err
	}

	t.IsArchived = archived != 0
	if familyID.Valid {
		t.FamilyID = &familyID.Int64
	}
	if description.Valid {
		t.Description = &description.String
	}
	return &t, nil
}

func (s *TrackerStore) Create(name string, familyID *int64, color string, description *string, order int) (*model.Tracker, error) {
	var fID sql.NullInt64
	if familyID != nil {
		fID = sql.NullInt64{Int64: *familyID, Valid: true}
	}
	var desc sql.NullString
	if description != nil {
		desc = sql.NullString{String: *description, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO trackers (name, family_id, color, description, "order") VALUES (?, ?, ?, ?, ?)`,
		name, fID, color, desc, order,
	)
	if err != nil {
		return nil, fmt.Errorf("insert tracker: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// List returns all trackers, archived included, ordered ascending by their
// display order. Consumers filter on IsArchived for active-only views.
func (s *TrackerStore) List() ([]model.Tracker, error) {
	rows, err := s.db.Query(`SELECT ` + trackerCols + ` FROM trackers ORDER BY "order", id`)
	if err != nil {
		return nil, fmt.Errorf("list trackers: %w", err)
	}
	defer rows.Close()

	var trackers []model.Tracker
	for rows.Next() {
		t, err := scanTracker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tracker: %w", err)
		}
		trackers = append(trackers, *t)
	}
	return trackers, rows.Err()
}

func (s *TrackerStore) GetByID(id int64) (*model.Tracker, error) {
	row := s.db.QueryRow(`SELECT `+trackerCols+` FROM trackers WHERE id = ?`, id)
	t, err := scanTracker(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tracker: %w", err)
	}
	return t, nil
}

// Update applies only the set fields of the patch and returns the full
// updated row. A set field holding nil writes NULL, which clears the
// nullable family_id and description columns; a null family_id un-assigns
// the tracker from its family. An empty patch is a no-op read.
func (s *TrackerStore) Update(id int64, p model.TrackerPatch) (*model.Tracker, error) {
	var sets []string
	var args []any

	if p.Name.Set {
		sets = append(sets, "name = ?")
		args = append(args, p.Name.Value)
	}
	if p.FamilyID.Set {
		sets = append(sets, "family_id = ?")
		args = append(args, p.FamilyID.Value)
	}
	if p.Color.Set {
		sets = append(sets, "color = ?")
		args = append(args, p.Color.Value)
	}
	if p.Description.Set {
		sets = append(sets, "description = ?")
		args = append(args, p.Description.Value)
	}
	if p.Order.Set {
		sets = append(sets, `"order" = ?`)
		args = append(args, p.Order.Value)
	}
	if p.IsArchived.Set && p.IsArchived.Value != nil {
		archived := 0
		if *p.IsArchived.Value {
			archived = 1
		}
		sets = append(sets, "is_archived = ?")
		args = append(args, archived)
	}
	if len(sets) == 0 {
		return s.GetByID(id)
	}

	args = append(args, id)
	if _, err := s.db.Exec(`UPDATE trackers SET `+joinSets(sets)+` WHERE id = ?`, args...); err != nil {
		return nil, fmt.Errorf("update tracker: %w", err)
	}
	return s.GetByID(id)
}

// Archive soft-deletes a tracker. The row and its entries stay queryable;
// the tracker just drops out of active lists.
func (s *TrackerStore) Archive(id int64) error {
	if _, err := s.db.Exec(`UPDATE trackers SET is_archived = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("archive tracker: %w", err)
	}
	return nil
}

// DeleteAll removes every tracker row. Used by the reset endpoint.
func (s *TrackerStore) DeleteAll() error {
	if _, err := s.db.Exec(`DELETE FROM trackers`); err != nil {
		return fmt.Errorf("delete all trackers: %w", err)
	}
	return nil
}
