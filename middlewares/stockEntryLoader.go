package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/gate_entry/models"
	"gorm.io/gorm"
)

type stockEntryReader struct {
	db *gorm.DB
}

// stock entries are loaded with their rows; the reports need the warehouses
func (r *stockEntryReader) getStockEntries(ctx context.Context, names []string) []*dataloader.Result[*models.StockEntry] {
	results, err := models.GetStockEntriesByName(ctx, r.db, names)
	if err != nil {
		return handleError[*models.StockEntry](len(names), err)
	}
	return generateNamedLoaderResults(results, names)
}

// LoadStockEntries returns the found entries by name; unknown names are absent.
func (l *Loaders) LoadStockEntries(ctx context.Context, names []string) (map[string]*models.StockEntry, error) {
	result := make(map[string]*models.StockEntry, len(names))
	if len(names) == 0 {
		return result, nil
	}
	entries, errs := l.StockEntryLoader.LoadMany(ctx, names)()
	if err := firstError(errs); err != nil {
		return nil, err
	}
	for i, name := range names {
		if i < len(entries) && entries[i] != nil {
			result[name] = entries[i]
		}
	}
	return result, nil
}
