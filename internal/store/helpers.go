package store

import (
	"database/sql"
	"fmt"

	"github.com/softreset-app/softreset/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanReflection scans a ReflectionRecord from sql.Rows.
func scanReflection(rows *sql.Rows) (models.ReflectionRecord, error) {
	var rec models.ReflectionRecord
	var feelingLabel, timeLabel sql.NullString
	err := rows.Scan(&rec.ID, &feelingLabel, &timeLabel, &rec.Dump, &rec.Text, &rec.ModelUsed, &rec.CreatedAt)
	if err != nil {
		return rec, fmt.Errorf("scan reflection failed: %w", err)
	}
	rec.FeelingLabel = feelingLabel.String
	rec.TimeLabel = timeLabel.String
	return rec, nil
}

// collectReflections drains rows into a slice of records.
func collectReflections(rows *sql.Rows) ([]models.ReflectionRecord, error) {
	var out []models.ReflectionRecord
	for rows.Next() {
		rec, err := scanReflection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reflections failed: %w", err)
	}
	return out, nil
}
