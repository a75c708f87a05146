package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// ActionRecord — след одной команды оператора
type ActionRecord struct {
	ID        int64
	Action    string
	Detail    string
	Success   bool
	Error     string
	CreatedAt time.Time
}

// ActionRepository управляет журналом команд оператора
type ActionRepository struct {
	db *sql.DB
}

func NewActionRepository(db *sql.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

// Save записывает команду в журнал
func (r *ActionRepository) Save(rec *ActionRecord) error {
	query := `
		INSERT INTO action_log (action, detail, success, error, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id`

	err := r.db.QueryRow(query, rec.Action, rec.Detail, rec.Success, rec.Error).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to save action record: %w", err)
	}
	return nil
}

// GetRecent возвращает последние команды
func (r *ActionRepository) GetRecent(limit int) ([]ActionRecord, error) {
	query := `
		SELECT id, action, detail, success, error, created_at
		FROM action_log
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get action records: %w", err)
	}
	defer rows.Close()

	var records []ActionRecord
	for rows.Next() {
		var rec ActionRecord
		if err := rows.Scan(&rec.ID, &rec.Action, &rec.Detail, &rec.Success, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan action record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
