package models

import (
	"context"

	"github.com/mmdatafocus/gate_entry/config"
	"gorm.io/gorm"
)

type ReplayGatePassJobsInput struct {
	JobIds     []int  `json:"job_ids"`
	StockEntry string `json:"stock_entry"`
	// IncludeDead also requeues jobs that exhausted their attempts.
	IncludeDead bool `json:"include_dead"`
}

// ReplayGatePassJobs puts unfinished jobs back to PENDING so the dispatcher publishes them
// again. Succeeded jobs are never replayed.
func ReplayGatePassJobs(ctx context.Context, input ReplayGatePassJobsInput) (int64, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return 0, err
	}

	statuses := []string{OutboxProcessStatusPending, OutboxProcessStatusFailed, OutboxProcessStatusProcessing}
	if input.IncludeDead {
		statuses = append(statuses, OutboxProcessStatusDead)
	}
	q := config.GetDB().WithContext(ctx).
		Model(&GatePassJob{}).
		Where("business_id = ? AND process_status IN ?", businessId, statuses)
	if len(input.JobIds) > 0 {
		q = q.Where("id IN ?", input.JobIds)
	}
	if input.StockEntry != "" {
		q = q.Where("stock_entry = ?", input.StockEntry)
	}

	res := q.Updates(map[string]interface{}{
		"locked_at":          nil,
		"locked_by":          nil,
		"publish_status":     OutboxPublishStatusPending,
		"publish_attempts":   0,
		"next_attempt_at":    nil,
		"process_status":     OutboxProcessStatusPending,
		"process_attempts":   0,
		"last_process_error": nil,
	})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return res.RowsAffected, nil
}
