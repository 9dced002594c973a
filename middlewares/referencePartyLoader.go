package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/gate_entry/models"
	"gorm.io/gorm"
)

type referencePartyReader struct {
	db *gorm.DB
}

// keys are "doctype|name"
func (r *referencePartyReader) getReferenceParties(ctx context.Context, keys []string) []*dataloader.Result[*models.ReferenceSummary] {
	refs := make([]models.ReferenceKey, 0, len(keys))
	for _, key := range keys {
		refs = append(refs, models.ParseReferenceKey(key))
	}
	summaries, err := models.GetReferenceSummaries(ctx, r.db, refs)
	if err != nil {
		return handleError[*models.ReferenceSummary](len(keys), err)
	}
	loaderResults := make([]*dataloader.Result[*models.ReferenceSummary], 0, len(keys))
	for _, ref := range refs {
		loaderResults = append(loaderResults, &dataloader.Result[*models.ReferenceSummary]{Data: summaries[ref]})
	}
	return loaderResults
}

func (l *Loaders) LoadReferenceSummaries(ctx context.Context, keys []models.ReferenceKey) (map[models.ReferenceKey]*models.ReferenceSummary, error) {
	result := make(map[models.ReferenceKey]*models.ReferenceSummary, len(keys))
	if len(keys) == 0 {
		return result, nil
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, key.String())
	}
	summaries, errs := l.ReferencePartyLoader.LoadMany(ctx, names)()
	if err := firstError(errs); err != nil {
		return nil, err
	}
	for i, key := range keys {
		if i < len(summaries) && summaries[i] != nil {
			result[key] = summaries[i]
		}
	}
	return result, nil
}
