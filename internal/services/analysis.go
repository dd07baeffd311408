package services

import (
	"fmt"
	"time"

	"commentlens/internal/cache"
	"commentlens/internal/core"
	"commentlens/internal/jobs"
	"commentlens/internal/logger"
	"commentlens/internal/store"
)

// AnalysisService is the application-facing facade over the orchestrator,
// cache and store. CLI handlers talk only to this layer.
type AnalysisService struct {
	orchestrator *jobs.Orchestrator
	cache        *cache.ResultCache
	store        *store.Store
}

// NewAnalysisService wires the facade.
func NewAnalysisService(orchestrator *jobs.Orchestrator, resultCache *cache.ResultCache, st *store.Store) *AnalysisService {
	return &AnalysisService{
		orchestrator: orchestrator,
		cache:        resultCache,
		store:        st,
	}
}

// ImportComments stores a batch of comments for later analysis.
func (s *AnalysisService) ImportComments(comments []core.Comment) error {
	for i, c := range comments {
		if c.ID == "" || c.PostID == "" {
			return fmt.Errorf("%w: comment %d is missing id or post_id", core.ErrValidation, i)
		}
	}
	if err := s.store.SaveComments(comments); err != nil {
		return fmt.Errorf("failed to import comments: %w", err)
	}
	logger.Info("comments imported", "count", len(comments))
	return nil
}

// RequestAnalysis serves a fresh cached result when one exists; otherwise it
// submits a new job. Exactly one of the return values is non-nil on success.
func (s *AnalysisService) RequestAnalysis(postID, userID string, commentIDs []string) (*core.AnalysisJob, *core.AnalysisResult, error) {
	if postID == "" {
		return nil, nil, fmt.Errorf("%w: post id is required", core.ErrValidation)
	}

	// Explicit comment subsets bypass the cache; cached results cover the
	// whole post.
	if len(commentIDs) == 0 {
		if cached := s.cache.Get(postID); cached != nil {
			logger.Info("analysis served from cache", "post_id", postID)
			return nil, cached, nil
		}
	}

	job, err := s.orchestrator.Submit(postID, userID, commentIDs)
	if err != nil {
		return nil, nil, err
	}
	return job, nil, nil
}

// GetStatus returns the job snapshot. Jobs submitted by another process are
// resolved from their persisted record.
func (s *AnalysisService) GetStatus(jobID string) (*core.AnalysisJob, error) {
	job, err := s.orchestrator.Status(jobID)
	if err == core.ErrNotFound {
		return s.store.GetJob(jobID)
	}
	return job, err
}

// GetResult returns the analysis result of a COMPLETED job. For jobs from a
// previous process the persisted store is consulted.
func (s *AnalysisService) GetResult(jobID string) (*core.AnalysisResult, error) {
	job, err := s.GetStatus(jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != core.JobCompleted {
		return nil, fmt.Errorf("%w: job %s is %s, not COMPLETED", core.ErrValidation, jobID, job.Status)
	}

	if result := s.orchestrator.Result(jobID); result != nil {
		return result, nil
	}

	result, err := s.store.FindLatestResult(job.PostID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, core.ErrNotFound
	}
	return result, nil
}

// Cancel cancels a non-terminal job.
func (s *AnalysisService) Cancel(jobID string) error {
	return s.orchestrator.Cancel(jobID)
}

// SystemStats aggregates orchestrator, cache and store statistics.
type SystemStats struct {
	Jobs  jobs.Stats   `json:"jobs"`
	Cache cache.Stats  `json:"cache"`
	Store *store.Stats `json:"store"`
}

// SystemStats snapshots the whole system.
func (s *AnalysisService) SystemStats() (*SystemStats, error) {
	storeStats, err := s.store.GetStats()
	if err != nil {
		return nil, err
	}
	return &SystemStats{
		Jobs:  s.orchestrator.Stats(),
		Cache: s.cache.Stats(),
		Store: storeStats,
	}, nil
}

// Maintenance purges expired cache entries and stale persisted records.
func (s *AnalysisService) Maintenance(maxAge time.Duration) error {
	purged := s.cache.PurgeExpired()
	logger.Info("cache maintenance done", "purged", purged)

	if err := s.store.CleanupOldRecords(maxAge); err != nil {
		return fmt.Errorf("store cleanup failed: %w", err)
	}
	return nil
}
