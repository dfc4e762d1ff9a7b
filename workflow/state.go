// Package workflow implements the newsletter generation pipeline: a fixed
// ordered chain of stages that threads an append-only State record from
// research through writing to newsletter formatting.
package workflow

import "time"

type Status string

const (
	StatusStarting           Status = "starting"
	StatusResearchComplete   Status = "research_complete"
	StatusWritingComplete    Status = "writing_complete"
	StatusNewsletterComplete Status = "newsletter_complete"
	StatusResearchFailed     Status = "research_failed"
	StatusWritingFailed      Status = "writing_failed"
	StatusNewsletterFailed   Status = "newsletter_failed"
)

func (s Status) Failed() bool {
	switch s {
	case StatusResearchFailed, StatusWritingFailed, StatusNewsletterFailed:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusNewsletterComplete || s.Failed()
}

// StageMetric captures one stage's measured performance against its
// configured thresholds.
type StageMetric struct {
	DurationSeconds float64 `json:"duration_seconds"`
	MetricName      string  `json:"metric_name"`
	MetricValue     int     `json:"metric_value"`
	ThresholdMet    bool    `json:"threshold_met"`
}

// State is the record threaded through the pipeline. Stages never mutate
// their input: each returns a copy with its own fields added. A field
// populated by stage k is never overwritten by stages k+1..n.
type State struct {
	ThreadID       string `json:"thread_id"`
	RunID          string `json:"run_id"`
	Topic          string `json:"topic"`
	RecipientEmail string `json:"recipient_email"`

	ResearchFindings []string `json:"research_findings,omitempty"`
	ResearchSources  []string `json:"research_sources,omitempty"`

	FullArticle  string `json:"full_article,omitempty"`
	ArticleTitle string `json:"article_title,omitempty"`

	NewsletterSummary string `json:"newsletter_summary,omitempty"`
	EmailSubject      string `json:"email_subject,omitempty"`
	EmailBody         string `json:"email_body,omitempty"`

	Status   Status   `json:"status"`
	Error    string   `json:"error,omitempty"`
	Messages []string `json:"messages"`

	Metrics map[string]StageMetric `json:"performance_metrics,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewState(threadID, runID, topic, recipient string, now time.Time) State {
	return State{
		ThreadID:       threadID,
		RunID:          runID,
		Topic:          topic,
		RecipientEmail: recipient,
		Status:         StatusStarting,
		Messages:       []string{"Workflow started"},
		Metrics:        map[string]StageMetric{},
		StartedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}
}

// clone deep-copies the slices and the metrics map so that a returned state
// shares no mutable storage with its input.
func (s State) clone() State {
	out := s
	out.ResearchFindings = append([]string(nil), s.ResearchFindings...)
	out.ResearchSources = append([]string(nil), s.ResearchSources...)
	out.Messages = append([]string(nil), s.Messages...)
	out.Metrics = make(map[string]StageMetric, len(s.Metrics))
	for k, v := range s.Metrics {
		out.Metrics[k] = v
	}
	return out
}

func (s State) withMessage(msg string) State {
	out := s.clone()
	out.Messages = append(out.Messages, msg)
	out.UpdatedAt = time.Now().UTC()
	return out
}

func (s State) withMetric(stage string, metric StageMetric) State {
	out := s.clone()
	out.Metrics[stage] = metric
	out.UpdatedAt = time.Now().UTC()
	return out
}
