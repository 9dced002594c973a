package models

import (
	"context"

	"github.com/mmdatafocus/gate_entry/config"
)

// ListGatePassJobs returns the latest jobs of the business, optionally for one stock entry.
func ListGatePassJobs(ctx context.Context, stockEntry string, limit int) ([]GatePassJobStatus, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	q := config.GetDB().WithContext(ctx).Where("business_id = ?", businessId)
	if stockEntry != "" {
		q = q.Where("stock_entry = ?", stockEntry)
	}
	var jobs []GatePassJob
	if err := q.Order("id DESC").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, err
	}

	out := make([]GatePassJobStatus, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Status())
	}
	return out, nil
}
