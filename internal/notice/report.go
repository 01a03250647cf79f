package notice

import (
	"encoding/json"
	"time"

	"go-notice-crawler/internal/models"
)

// Status is the outcome of one source in a run, or of one ingestion.
type Status string

const (
	StatusCreated       Status = "created"
	StatusAlreadyExists Status = "already_exists"
	StatusExtractFailed Status = "extract_failed"
	StatusStoreFailed   Status = "store_failed"
)

// SourceResult is what happened to one source during a run.
type SourceResult struct {
	Key    string         `json:"key"`
	School string         `json:"school"`
	Status Status         `json:"status"`
	Notice *models.Notice `json:"notice,omitempty"`
	Err    error          `json:"-"`
}

// Error is the failure message, empty on success.
func (r SourceResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// MarshalJSON writes Err as its message under "error".
func (r SourceResult) MarshalJSON() ([]byte, error) {
	type plain SourceResult
	return json.Marshal(struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain(r), r.Error()})
}

type RunReport struct {
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Results   []SourceResult `json:"results"`

	Created  int `json:"created"`
	Existing int `json:"existing"`
	Failed   int `json:"failed"`
}

func (r *RunReport) add(res SourceResult) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case StatusCreated:
		r.Created++
	case StatusAlreadyExists:
		r.Existing++
	default:
		r.Failed++
	}
}

// NewNotices returns the notices created by this run, in source order.
func (r *RunReport) NewNotices() []models.Notice {
	var out []models.Notice
	for _, res := range r.Results {
		if res.Status == StatusCreated && res.Notice != nil {
			out = append(out, *res.Notice)
		}
	}
	return out
}
