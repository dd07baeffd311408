package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"commentlens/internal/core"
)

// Store is the SQLite-backed record store: comments pulled from platform
// connectors, analysis results (the second cache tier), and job records for
// cross-process visibility.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "commentlens.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

func (s *Store) initialize() error {
	commentsTable := `
	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL,
		author_id TEXT,
		text TEXT,
		like_count INTEGER,
		published_at DATETIME
	);`

	resultsTable := `
	CREATE TABLE IF NOT EXISTS analysis_results (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		quality_score REAL,
		analyzed_at DATETIME
	);`

	jobsTable := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL,
		user_id TEXT,
		status TEXT NOT NULL,
		progress INTEGER,
		current_step INTEGER,
		step_description TEXT,
		error TEXT,
		attempts INTEGER,
		created_at DATETIME,
		started_at DATETIME,
		completed_at DATETIME
	);`

	indexes := `
	CREATE INDEX IF NOT EXISTS idx_comments_post ON comments (post_id);
	CREATE INDEX IF NOT EXISTS idx_results_post ON analysis_results (post_id, analyzed_at);`

	for _, stmt := range []string{commentsTable, resultsTable, jobsTable, indexes} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveComments upserts a batch of comments.
func (s *Store) SaveComments(comments []core.Comment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt := `
	INSERT OR REPLACE INTO comments (id, post_id, author_id, text, like_count, published_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	for _, c := range comments {
		if _, err := tx.Exec(stmt, c.ID, c.PostID, c.AuthorID, c.Text, c.LikeCount, c.PublishedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save comment %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// FindComments returns all stored comments for a post, oldest first.
func (s *Store) FindComments(postID string) ([]core.Comment, error) {
	rows, err := s.db.Query(`
		SELECT id, post_id, author_id, text, like_count, published_at
		FROM comments WHERE post_id = ? ORDER BY published_at, id`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []core.Comment
	for rows.Next() {
		var c core.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Text, &c.LikeCount, &c.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// SaveAnalysisResult persists a completed result. Results are immutable;
// a re-run inserts a new record that supersedes the old one by timestamp.
func (s *Store) SaveAnalysisResult(result core.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO analysis_results (id, post_id, payload, quality_score, analyzed_at)
		VALUES (?, ?, ?, ?, ?)`,
		result.ID, result.PostID, string(payload), result.QualityScore, result.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis result: %w", err)
	}
	return nil
}

// FindLatestResult returns the newest result for a post, or nil on miss.
// Freshness against a TTL is the caller's decision, using AnalyzedAt.
func (s *Store) FindLatestResult(postID string) (*core.AnalysisResult, error) {
	row := s.db.QueryRow(`
		SELECT payload FROM analysis_results
		WHERE post_id = ? ORDER BY analyzed_at DESC LIMIT 1`, postID)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Miss
		}
		return nil, fmt.Errorf("failed to scan result: %w", err)
	}

	var result core.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// SaveJob upserts a job snapshot.
func (s *Store) SaveJob(job core.AnalysisJob) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO jobs
		(id, post_id, user_id, status, progress, current_step, step_description, error, attempts, created_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.PostID, job.UserID, string(job.Status), job.Progress, job.CurrentStep,
		job.StepDescription, job.Error, job.Attempts, job.CreatedAt, job.StartedAt, job.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// GetJob returns a persisted job snapshot, or core.ErrNotFound.
func (s *Store) GetJob(jobID string) (*core.AnalysisJob, error) {
	row := s.db.QueryRow(`
		SELECT id, post_id, user_id, status, progress, current_step, step_description, error, attempts, created_at, started_at, completed_at
		FROM jobs WHERE id = ?`, jobID)

	var job core.AnalysisJob
	var status string
	err := row.Scan(&job.ID, &job.PostID, &job.UserID, &status, &job.Progress, &job.CurrentStep,
		&job.StepDescription, &job.Error, &job.Attempts, &job.CreatedAt, &job.StartedAt, &job.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	job.Status = core.JobStatus(status)
	job.TotalSteps = core.TotalPipelineSteps
	return &job, nil
}

// Stats summarizes stored record counts.
type Stats struct {
	CommentCount int
	ResultCount  int
	JobCount     int
	DatabaseSize int64
	LastUpdated  time.Time
}

// GetStats returns record counts and the database file size.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	queries := map[string]*int{
		"SELECT COUNT(*) FROM comments":         &stats.CommentCount,
		"SELECT COUNT(*) FROM analysis_results": &stats.ResultCount,
		"SELECT COUNT(*) FROM jobs":             &stats.JobCount,
	}
	for query, target := range queries {
		if err := s.db.QueryRow(query).Scan(target); err != nil {
			return nil, fmt.Errorf("failed to get count: %w", err)
		}
	}

	if info, err := os.Stat(s.path); err == nil {
		stats.DatabaseSize = info.Size()
		stats.LastUpdated = info.ModTime()
	}
	return stats, nil
}

// CleanupOldRecords removes terminal jobs and superseded results older than
// maxAge. Used by maintenance.
func (s *Store) CleanupOldRecords(maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge)

	_, err := s.db.Exec(`
		DELETE FROM jobs
		WHERE status IN ('COMPLETED', 'FAILED', 'CANCELLED') AND completed_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean old jobs: %w", err)
	}

	// Keep the newest result per post; drop older superseded records.
	_, err = s.db.Exec(`
		DELETE FROM analysis_results
		WHERE analyzed_at < ? AND id NOT IN (
			SELECT id FROM analysis_results ar
			WHERE ar.analyzed_at = (SELECT MAX(analyzed_at) FROM analysis_results WHERE post_id = ar.post_id)
		)`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean old results: %w", err)
	}
	return nil
}
