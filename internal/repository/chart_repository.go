package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopkit/ticket-seller/internal/model"
)

// ErrChartNotFound is returned when a seating chart lookup yields no rows.
var ErrChartNotFound = errors.New("seating chart not found")

// ChartRepo provides data access to seating charts and their sections.
// Charts and sections are administrative data; seat state lives in the
// seats table and is managed by SeatRepo.
type ChartRepo struct {
	db *sql.DB
}

// NewChartRepo constructs a ChartRepo with the given DB handle.
func NewChartRepo(db *sql.DB) *ChartRepo {
	return &ChartRepo{db: db}
}

// CreateChart inserts a seating chart. On success the ID is populated.
func (r *ChartRepo) CreateChart(ctx context.Context, c *model.SeatingChart) error {
	const q = `INSERT INTO seating_charts (venue_id, name, status) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.VenueID, c.Name, c.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetChart retrieves a seating chart by its id.
func (r *ChartRepo) GetChart(ctx context.Context, id uint64) (*model.SeatingChart, error) {
	const q = `SELECT id, venue_id, name, status, created_at, updated_at
	           FROM seating_charts WHERE id = ?`
	var c model.SeatingChart
	var venueID sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&c.ID, &venueID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChartNotFound
		}
		return nil, err
	}
	if venueID.Valid {
		v := uint64(venueID.Int64)
		c.VenueID = &v
	}
	return &c, nil
}

// CreateSection inserts a section. On success the ID is populated.
func (r *ChartRepo) CreateSection(ctx context.Context, s *model.Section) error {
	const q = `INSERT INTO sections (chart_id, name, label) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.ChartID, s.Name, s.Label)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// ListSections retrieves all sections of a chart ordered by id.
func (r *ChartRepo) ListSections(ctx context.Context, chartID uint64) ([]model.Section, error) {
	const q = `SELECT id, chart_id, name, label, created_at, updated_at
	           FROM sections WHERE chart_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, chartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Section
	for rows.Next() {
		var s model.Section
		if err := rows.Scan(&s.ID, &s.ChartID, &s.Name, &s.Label, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
