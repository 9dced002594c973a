package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/gate_entry/models"
	"github.com/mmdatafocus/gate_entry/utils"
	"gorm.io/gorm"
)

type gatePassItemReader struct {
	db *gorm.DB
}

func (r *gatePassItemReader) getGatePassItems(ctx context.Context, ids []int) []*dataloader.Result[[]*models.GatePassItem] {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return handleError[[]*models.GatePassItem](len(ids), utils.ErrorBusinessId)
	}
	var results []models.GatePassItem
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND gate_pass_id IN ?", businessId, ids).
		Order("gate_pass_id, idx").
		Find(&results).Error
	if err != nil {
		return handleError[[]*models.GatePassItem](len(ids), err)
	}
	return generateLoaderArrayResults(results, ids)
}

func (l *Loaders) LoadGatePassItems(ctx context.Context, ids []int) (map[int][]*models.GatePassItem, error) {
	result := make(map[int][]*models.GatePassItem, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	items, errs := l.GatePassItemsLoader.LoadMany(ctx, ids)()
	if err := firstError(errs); err != nil {
		return nil, err
	}
	for i, id := range ids {
		if i < len(items) && len(items[i]) > 0 {
			result[id] = items[i]
		}
	}
	return result, nil
}
