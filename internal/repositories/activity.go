package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
)

// ActivityRepository implements [models.Repository] for [models.Activity] persistence.
type ActivityRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Activity] = (*ActivityRepository)(nil)

// NewActivityRepository creates a new [ActivityRepository] with the given database connection
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create inserts a new activity with generated ID and sequence
func (r *ActivityRepository) Create(a *models.Activity) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "activities")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	query := `
		INSERT INTO activities (id, sequence, actor, entity, action, target_id, outcome, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, id, sequence, a.Actor(), a.Entity(), string(a.Action()), a.TargetID(),
		string(a.Outcome()), a.Message(), a.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	a.SetID(id)
	a.SetSequence(sequence)
	return nil
}

// Get retrieves an activity by ID
func (r *ActivityRepository) Get(id string) (*models.Activity, error) {
	query := `
		SELECT id, sequence, actor, entity, action, target_id, outcome, message, created_at
		FROM activities WHERE id = ?
	`
	a, err := scanActivity(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("activity not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	return a, nil
}

// Delete removes an activity by ID
func (r *ActivityRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("activity not found: %s", id)
	}
	return nil
}

// List retrieves activities newest first.
//
// Supported criteria: "entity" (string), "actor" (string), "limit" (int).
func (r *ActivityRepository) List(criteria map[string]any) ([]*models.Activity, error) {
	query := `
		SELECT id, sequence, actor, entity, action, target_id, outcome, message, created_at
		FROM activities
		WHERE 1 = 1
	`
	args := []any{}

	if entity, ok := criteria["entity"].(string); ok && entity != "" {
		query += " AND entity = ?"
		args = append(args, entity)
	}
	if actor, ok := criteria["actor"].(string); ok && actor != "" {
		query += " AND actor = ?"
		args = append(args, actor)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return activities, nil
}

// Record stores an entry. A nil repository records nothing.
func (r *ActivityRepository) Record(a *models.Activity) error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.Create(a)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(s scanner) (*models.Activity, error) {
	var (
		id        string
		sequence  int
		actor     string
		entity    string
		action    string
		targetID  string
		outcome   string
		message   string
		createdAt time.Time
	)
	if err := s.Scan(&id, &sequence, &actor, &entity, &action, &targetID, &outcome, &message, &createdAt); err != nil {
		return nil, err
	}

	a := models.NewActivity(actor, entity, models.ActivityAction(action), targetID, models.ActivityOutcome(outcome), message)
	a.SetID(id)
	a.SetSequence(sequence)
	a.SetCreatedAt(createdAt)
	return a, nil
}
