package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/utils"
	"gorm.io/gorm"
)

type GatePassJobKind string

const GatePassJobCreateFromStockEntry GatePassJobKind = "create_gate_pass_from_stock_entry"

// GatePassJobRequest is what callers hand to a JobQueue.
type GatePassJobRequest struct {
	Kind       GatePassJobKind `json:"kind"`
	StockEntry string          `json:"stock_entry"`
	EnqueuedBy string          `json:"enqueued_by"`
}

// GatePassJob is an outbox row; the dispatcher publishes it after the enqueuing transaction commits.
type GatePassJob struct {
	ID            int             `gorm:"primary_key;index:idx_gate_pass_job_dispatch,priority:3" json:"id"`
	BusinessId    string          `gorm:"size:64;not null;index" json:"business_id"`
	Kind          GatePassJobKind `gorm:"size:60;not null" json:"kind"`
	StockEntry    string          `gorm:"size:140;index" json:"stock_entry"`
	EnqueuedBy    string          `gorm:"size:100" json:"enqueued_by"`
	CorrelationId string          `gorm:"size:64;index" json:"correlation_id"`

	PublishStatus    string     `gorm:"size:20;not null;default:'PENDING';index:idx_gate_pass_job_dispatch,priority:1" json:"publish_status"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index:idx_gate_pass_job_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	PublishedAt      *time.Time `json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`

	ProcessStatus    string     `gorm:"size:20;not null;default:'PENDING';index" json:"process_status"`
	ProcessAttempts  int        `gorm:"not null;default:0" json:"process_attempts"`
	LastProcessError *string    `gorm:"type:text" json:"last_process_error"`
	ProcessedAt      *time.Time `json:"processed_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (j GatePassJob) Message() config.GatePassJobMessage {
	return config.GatePassJobMessage{
		JobId:         j.ID,
		BusinessId:    j.BusinessId,
		Kind:          string(j.Kind),
		StockEntry:    j.StockEntry,
		EnqueuedBy:    j.EnqueuedBy,
		CorrelationId: j.CorrelationId,
		EnqueuedAt:    j.CreatedAt,
	}
}

// OutboxJobQueue records jobs in gate_pass_jobs.
type OutboxJobQueue struct {
	DB *gorm.DB
}

func NewOutboxJobQueue(db *gorm.DB) *OutboxJobQueue {
	return &OutboxJobQueue{DB: db}
}

func (q *OutboxJobQueue) Enqueue(ctx context.Context, req GatePassJobRequest) error {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return err
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	job := GatePassJob{
		BusinessId:    businessId,
		Kind:          req.Kind,
		StockEntry:    req.StockEntry,
		EnqueuedBy:    req.EnqueuedBy,
		CorrelationId: correlationId,
		PublishStatus: OutboxPublishStatusPending,
		ProcessStatus: OutboxProcessStatusPending,
	}
	return q.DB.WithContext(ctx).Create(&job).Error
}

// ClaimGatePassJob moves a delivered job to PROCESSING. It reports false when the job is
// already finished, so redelivered messages are acknowledged without running twice.
func ClaimGatePassJob(ctx context.Context, db *gorm.DB, id int) (*GatePassJob, bool, error) {
	var job GatePassJob
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&job).Error; err != nil {
		return nil, false, err
	}
	switch job.ProcessStatus {
	case OutboxProcessStatusSucceeded, OutboxProcessStatusDead:
		return &job, false, nil
	}
	err := db.WithContext(ctx).Model(&GatePassJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"process_status":   OutboxProcessStatusProcessing,
		"process_attempts": gorm.Expr("process_attempts + 1"),
	}).Error
	if err != nil {
		return nil, false, err
	}
	job.ProcessAttempts++
	job.ProcessStatus = OutboxProcessStatusProcessing
	return &job, true, nil
}

func MarkGatePassJobSucceeded(ctx context.Context, db *gorm.DB, id int) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Model(&GatePassJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"process_status":     OutboxProcessStatusSucceeded,
		"processed_at":       &now,
		"last_process_error": nil,
	}).Error
}

// MarkGatePassJobFailed records err; a terminal failure, or one after MaxJobProcessAttempts,
// makes the job DEAD and dead reports true.
func MarkGatePassJobFailed(ctx context.Context, db *gorm.DB, job *GatePassJob, cause error, terminal bool) (dead bool, err error) {
	msg := cause.Error()
	status := OutboxProcessStatusFailed
	if terminal || job.ProcessAttempts >= MaxJobProcessAttempts {
		status = OutboxProcessStatusDead
	}
	err = db.WithContext(ctx).Model(&GatePassJob{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"process_status":     status,
		"last_process_error": &msg,
	}).Error
	return status == OutboxProcessStatusDead, err
}
