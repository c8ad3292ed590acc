package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// maxIssues bounds the issue list persisted per run; only the most recent
// issues are kept.
const maxIssues = 20

// SQLStatusRepository implements StatusRepository on SQLite.
type SQLStatusRepository struct {
	db *DB
}

var _ StatusRepository = (*SQLStatusRepository)(nil)

func NewStatusRepository(db *DB) *SQLStatusRepository {
	return &SQLStatusRepository{db: db}
}

// StartRun marks a run as in flight and clears the previous run's issues.
func (r *SQLStatusRepository) StartRun(key string) error {
	_, err := r.db.Exec(`
		INSERT INTO ingestion_status (key, last_run_at, last_run_status, summary, issues)
		VALUES ($1, CURRENT_TIMESTAMP, $2, '', '[]')
		ON CONFLICT (key) DO UPDATE SET
			last_run_at = CURRENT_TIMESTAMP,
			last_run_status = excluded.last_run_status,
			summary = '',
			issues = '[]',
			updated_at = CURRENT_TIMESTAMP
	`, key, RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to start run %s: %w", key, err)
	}
	return nil
}

// FinishRun records the terminal state of a run along with its counters.
func (r *SQLStatusRepository) FinishRun(key, status, summary string, issues []string, trending, categories int) error {
	if len(issues) > maxIssues {
		issues = issues[len(issues)-maxIssues:]
	}
	if issues == nil {
		issues = []string{}
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("failed to marshal issues: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO ingestion_status (key, last_run_finished_at, last_run_status, summary, issues, trending_count, categories_count)
		VALUES ($1, CURRENT_TIMESTAMP, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE SET
			last_run_finished_at = CURRENT_TIMESTAMP,
			last_run_status = excluded.last_run_status,
			summary = excluded.summary,
			issues = excluded.issues,
			trending_count = excluded.trending_count,
			categories_count = excluded.categories_count,
			updated_at = CURRENT_TIMESTAMP
	`, key, status, summary, string(issuesJSON), trending, categories)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", key, err)
	}
	return nil
}

func (r *SQLStatusRepository) Get(key string) (*RunStatus, error) {
	row := r.db.QueryRow(`
		SELECT key, last_run_at, last_run_finished_at, last_run_status, summary,
			issues, trending_count, categories_count, created_at, updated_at
		FROM ingestion_status
		WHERE key = $1
	`, key)

	var s RunStatus
	var lastRunAt, lastRunFinishedAt sql.NullTime
	var issues string

	err := row.Scan(&s.Key, &lastRunAt, &lastRunFinishedAt, &s.LastRunStatus,
		&s.Summary, &issues, &s.TrendingCount, &s.CategoriesCount,
		&s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run status: %w", err)
	}

	if lastRunAt.Valid {
		s.LastRunAt = &lastRunAt.Time
	}
	if lastRunFinishedAt.Valid {
		s.LastRunFinishedAt = &lastRunFinishedAt.Time
	}
	if err := json.Unmarshal([]byte(issues), &s.Issues); err != nil {
		return nil, fmt.Errorf("failed to unmarshal issues: %w", err)
	}

	return &s, nil
}
