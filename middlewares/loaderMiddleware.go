package middlewares

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/models"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders wrap your data loaders to inject via middleware
type Loaders struct {
	StockEntryLoader     *dataloader.Loader[string, *models.StockEntry]
	GatePassItemsLoader  *dataloader.Loader[int, []*models.GatePassItem]
	ReferencePartyLoader *dataloader.Loader[string, *models.ReferenceSummary]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(conn *gorm.DB) *Loaders {
	stockEntryReader := &stockEntryReader{db: conn}
	gatePassItemReader := &gatePassItemReader{db: conn}
	referencePartyReader := &referencePartyReader{db: conn}

	return &Loaders{
		StockEntryLoader:     dataloader.NewBatchedLoader(stockEntryReader.getStockEntries, dataloader.WithWait[string, *models.StockEntry](time.Millisecond)),
		GatePassItemsLoader:  dataloader.NewBatchedLoader(gatePassItemReader.getGatePassItems, dataloader.WithWait[int, []*models.GatePassItem](time.Millisecond)),
		ReferencePartyLoader: dataloader.NewBatchedLoader(referencePartyReader.getReferenceParties, dataloader.WithWait[string, *models.ReferenceSummary](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// For returns the request loaders, or nil outside LoaderMiddleware.
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(loadersKey).(*Loaders)
	return loaders
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// turns named rows from db into dataloader results; a missing name yields nil data
func generateNamedLoaderResults[T models.Named](results []*T, names []string) []*dataloader.Result[*T] {
	resultMap := make(map[string]*T, len(results))
	for _, result := range results {
		resultMap[(*result).GetName()] = result
	}
	loaderResults := make([]*dataloader.Result[*T], 0, len(names))
	for _, name := range names {
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: resultMap[name]})
	}
	return loaderResults
}

// T must be struct
// each id has many related results
func generateLoaderArrayResults[T models.RelatedData](results []T, referenceIds []int) (loaderResults []*dataloader.Result[[]*T]) {
	resultMap := make(map[int][]*T)
	for _, result := range results {
		// creating a new variable every turn, to avoid pointing to the adddress of result
		copy := result
		resultMap[result.GetReferenceId()] = append(resultMap[result.GetReferenceId()], &copy)
	}
	for _, id := range referenceIds {
		resultArray := resultMap[id]
		loaderResults = append(loaderResults, &dataloader.Result[[]*T]{Data: resultArray})
	}
	return loaderResults
}

// firstError picks the first failure out of a LoadMany.
func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
