package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/tally/internal/model"
)

type FamilyStore struct {
	db *sql.DB
}

func NewFamilyStore(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

const familyCols = `id, name, icon, "order"`

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	var icon sql.NullString

	if err := scanner.Scan(&f.ID, &f.Name, &icon, &f.Order); err != nil {
		return nil, err
	}
	if icon.Valid {
		f.Icon = &icon.String
	}
	return &f, nil
}

func (s *FamilyStore) Create(name string, icon *string, order int) (*model.Family, error) {
	var ic sql.NullString
	if icon != nil {
		ic = sql.NullString{String: *icon, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO families (name, icon, "order") VALUES (?, ?, ?)`,
		name, ic, order,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// List returns all families ordered ascending by their display order.
func (s *FamilyStore) List() ([]model.Family, error) {
	rows, err := s.db.Query(`SELECT ` + familyCols + ` FROM families ORDER BY "order", id`)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	defer rows.Close()

	var families []model.Family
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		families = append(families, *f)
	}
	return families, rows.Err()
}

func (s *FamilyStore) GetByID(id int64) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

// Update applies only the set fields of the patch and returns the full
// updated row. A set field holding nil writes NULL, which clears the
// nullable icon column. An empty patch is a no-op read.
func (s *FamilyStore) Update(id int64, p model.FamilyPatch) (*model.Family, error) {
	var sets []string
	var args []any

	if p.Name.Set {
		sets = append(sets, "name = ?")
		args = append(args, p.Name.Value)
	}
	if p.Icon.Set {
		sets = append(sets, "icon = ?")
		args = append(args, p.Icon.Value)
	}
	if p.Order.Set {
		sets = append(sets, `"order" = ?`)
		args = append(args, p.Order.Value)
	}
	if len(sets) == 0 {
		return s.GetByID(id)
	}

	args = append(args, id)
	if _, err := s.db.Exec(`UPDATE families SET `+joinSets(sets)+` WHERE id = ?`, args...); err != nil {
		return nil, fmt.Errorf("update family: %w", err)
	}
	return s.GetByID(id)
}

func (s *FamilyStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM families WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete family: %w", err)
	}
	return nil
}

// DeleteAll removes every family row. Used by the reset endpoint.
func (s *FamilyStore) DeleteAll() error {
	if _, err := s.db.Exec(`DELETE FROM families`); err != nil {
		return fmt.Errorf("delete all families: %w", err)
	}
	return nil
}
