package models

import "time"

// GatePassJobStatus is the operator view of one outbox row.
type GatePassJobStatus struct {
	JobId            int             `json:"job_id"`
	Kind             GatePassJobKind `json:"kind"`
	StockEntry       string          `json:"stock_entry"`
	PublishStatus    string          `json:"publish_status"`
	ProcessStatus    string          `json:"process_status"`
	PublishAttempts  int             `json:"publish_attempts"`
	ProcessAttempts  int             `json:"process_attempts"`
	NextAttemptAt    *time.Time      `json:"next_attempt_at"`
	LastPublishError *string         `json:"last_publish_error"`
	LastProcessError *string         `json:"last_process_error"`
	CreatedAt        time.Time       `json:"created_at"`
	PublishedAt      *time.Time      `json:"published_at"`
	ProcessedAt      *time.Time      `json:"processed_at"`
}

func (j GatePassJob) Status() GatePassJobStatus {
	return GatePassJobStatus{
		JobId:            j.ID,
		Kind:             j.Kind,
		StockEntry:       j.StockEntry,
		PublishStatus:    j.PublishStatus,
		ProcessStatus:    j.ProcessStatus,
		PublishAttempts:  j.PublishAttempts,
		ProcessAttempts:  j.ProcessAttempts,
		NextAttemptAt:    j.NextAttemptAt,
		LastPublishError: j.LastPublishError,
		LastProcessError: j.LastProcessError,
		CreatedAt:        j.CreatedAt,
		PublishedAt:      j.PublishedAt,
		ProcessedAt:      j.ProcessedAt,
	}
}
