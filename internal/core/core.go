package core

import "time"

// SentimentClass is the discrete sentiment category assigned to a comment.
type SentimentClass string

const (
	SentimentPositive SentimentClass = "POSITIVE"
	SentimentNegative SentimentClass = "NEGATIVE"
	SentimentNeutral  SentimentClass = "NEUTRAL"
)

// JobStatus represents the lifecycle state of an analysis job.
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

// TotalPipelineSteps is the fixed number of steps one analysis run performs:
// preprocess, classify, cluster, summarize, persist.
const TotalPipelineSteps = 5

// Comment represents a single social-media comment pulled from a platform connector.
type Comment struct {
	ID            string    `json:"id"`              // Unique identifier for the comment
	PostID        string    `json:"post_id"`         // Identifier of the subject post
	AuthorID      string    `json:"author_id"`       // Identifier of the comment author
	Text          string    `json:"text"`            // Comment body (cleaned in place by the preprocessor)
	LikeCount     int       `json:"like_count"`      // Platform like/upvote count
	PublishedAt   time.Time `json:"published_at"`    // When the comment was posted
	IsSpam        bool      `json:"is_spam"`         // Set by the preprocessor
	SpamReason    string    `json:"spam_reason"`     // Why the comment was flagged as spam
	IsToxic       bool      `json:"is_toxic"`        // Set by the preprocessor
	ToxicReason   string    `json:"toxic_reason"`    // Why the comment was flagged as toxic
	IsDuplicate   bool      `json:"is_duplicate"`    // Set by the preprocessor
	DuplicateOfID string    `json:"duplicate_of_id"` // ID of the comment this one near-duplicates
}

// SentimentResult is the per-comment output of the sentiment classifier.
type SentimentResult struct {
	CommentID  string         `json:"comment_id"` // Comment this result belongs to
	Sentiment  SentimentClass `json:"sentiment"`  // POSITIVE, NEGATIVE or NEUTRAL
	Confidence float64        `json:"confidence"` // Classifier confidence (0.0 to 1.0)
	Emotions   []string       `json:"emotions"`   // Emotion tags reported by the model
	Source     string         `json:"source"`     // "model" or "fallback"
}

// Keyword is a weighted token extracted from the comment set.
// Keywords are computed fresh per analysis run and never persisted on their own.
type Keyword struct {
	Token     string         `json:"token"`     // The token itself, lowercased
	Frequency int            `json:"frequency"` // Raw occurrence count across comments
	Sentiment SentimentClass `json:"sentiment"` // Dominant sentiment of comments containing the token
	Score     float64        `json:"score"`     // TF-IDF weight
	Purity    float64        `json:"purity"`    // Share of occurrences agreeing with the dominant sentiment (0-1)
	Contexts  []string       `json:"contexts"`  // Up to 5 sample surrounding contexts
}

// Theme is a cluster of lexically similar comments with a representative name.
type Theme struct {
	ID             string         `json:"id"`             // Unique identifier for the theme
	Name           string         `json:"name"`           // Human-readable theme name
	CommentIDs     []string       `json:"comment_ids"`    // Members of the cluster
	Sentiment      SentimentClass `json:"sentiment"`      // Dominant sentiment among members
	Frequency      int            `json:"frequency"`      // Member count; always equals len(CommentIDs)
	Representative []Comment      `json:"representative"` // Up to 3 representative comments
	Keywords       []string       `json:"keywords"`       // Up to 5 associated keywords
	Coherence      float64        `json:"coherence"`      // Mean pairwise similarity of members (0-1)
}

// EmotionScore is a detected emotion with its prevalence across the comment set.
type EmotionScore struct {
	Emotion    string   `json:"emotion"`    // Emotion label (e.g., "joy", "frustration")
	Prevalence float64  `json:"prevalence"` // Percentage of comments exhibiting the emotion (0-100)
	Samples    []string `json:"samples"`    // Up to 3 sample comment texts
}

// SentimentBreakdown holds the positive/negative/neutral fractions of a comment set.
// The three fractions sum to 1 within floating-point tolerance.
type SentimentBreakdown struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// FilterStats counts the outcome of the preprocessing stage.
type FilterStats struct {
	Total      int `json:"total"`      // Comments received
	Spam       int `json:"spam"`       // Excluded as spam
	Toxic      int `json:"toxic"`      // Excluded as toxic
	Duplicates int `json:"duplicates"` // Excluded as near-duplicates
	Passed     int `json:"passed"`     // Comments forwarded to analysis
}

// AnalysisResult is the terminal artifact of a pipeline run. It is created once
// per successful job and is immutable; a re-run supersedes it with a new record.
type AnalysisResult struct {
	ID               string             `json:"id"`                // Unique identifier for the result
	PostID           string             `json:"post_id"`           // Subject post
	Summary          string             `json:"summary"`           // Narrative summary text
	WordCount        int                `json:"word_count"`        // Words in the summary
	QualityScore     float64            `json:"quality_score"`     // Heuristic confidence (0-1)
	Emotions         []EmotionScore     `json:"emotions"`          // Up to 3 detected emotions
	KeyInsights      []string           `json:"key_insights"`      // Up to 4 key insights
	Recommendations  []string           `json:"recommendations"`   // Up to 3 recommendations
	Breakdown        SentimentBreakdown `json:"breakdown"`         // Sentiment distribution
	TotalComments    int                `json:"total_comments"`    // Comments received by the pipeline
	FilteredComments int                `json:"filtered_comments"` // Comments excluded by the preprocessor
	ModelUsed        string             `json:"model_used"`        // Model that produced the summary ("" for fallback)
	AnalyzedAt       time.Time          `json:"analyzed_at"`       // When the analysis completed
}

// AnalysisJob tracks one end-to-end analysis request through the orchestrator.
// It is mutated only by the orchestrator and persisted for cross-process visibility.
type AnalysisJob struct {
	ID              string    `json:"id"`               // Unique job identifier
	PostID          string    `json:"post_id"`          // Subject post
	UserID          string    `json:"user_id"`          // Requesting user
	CommentIDs      []string  `json:"comment_ids"`      // Comments to analyze (empty = all for the post)
	Status          JobStatus `json:"status"`           // Lifecycle state
	Progress        int       `json:"progress"`         // 0-100, non-decreasing while RUNNING
	CurrentStep     int       `json:"current_step"`     // 1-based pipeline step
	TotalSteps      int       `json:"total_steps"`      // Always TotalPipelineSteps
	StepDescription string    `json:"step_description"` // Human-readable description of the current step
	Error           string    `json:"error"`            // Captured error message for FAILED jobs
	Attempts        int       `json:"attempts"`         // Execution attempts so far (capped at 3)
	CreatedAt       time.Time `json:"created_at"`       // When the job was submitted
	StartedAt       time.Time `json:"started_at"`       // When the job first entered RUNNING (zero if never)
	CompletedAt     time.Time `json:"completed_at"`     // When the job reached a terminal state (zero if not yet)
}

// Terminal reports whether the job has reached a terminal state.
func (j *AnalysisJob) Terminal() bool {
	switch j.Status {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}
