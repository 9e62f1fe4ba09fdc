// Package repositories provides persistence layer implementations for sessions and activities.
package repositories

import (
	"database/sql"
	"fmt"
)

// NextSequence increments the single-row counter table {table}_sequence and returns the new value.
//
// Sequence numbers give activities a stable order independent of clock skew.
func NextSequence(db *sql.DB, table string) (int, error) {
	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := db.QueryRow(query).Scan(&sequence); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("sequence table %s_sequence has no counter row", table)
		}
		return 0, fmt.Errorf("failed to advance %s sequence: %w", table, err)
	}
	return sequence, nil
}
