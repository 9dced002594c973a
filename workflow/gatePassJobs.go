package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/models"
	"github.com/mmdatafocus/gate_entry/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type JobOutcome int

const (
	JobSucceeded JobOutcome = iota
	// JobSkipped is a redelivery of a finished job.
	JobSkipped
	JobRetry
	JobDead
)

// Ack reports whether Pub/Sub should stop redelivering.
func (o JobOutcome) Ack() bool {
	return o != JobRetry
}

func (o JobOutcome) String() string {
	switch o {
	case JobSucceeded:
		return "succeeded"
	case JobSkipped:
		return "skipped"
	case JobRetry:
		return "retry"
	case JobDead:
		return "dead"
	}
	return fmt.Sprintf("JobOutcome(%d)", int(o))
}

// RunJob executes one gate pass job against the given store.
type RunJob func(ctx context.Context, store models.DocumentStore, req models.GatePassJobRequest) error

// CreateGatePassJob is the RunJob for GatePassJobCreateFromStockEntry.
func CreateGatePassJob(ctx context.Context, store models.DocumentStore, req models.GatePassJobRequest) error {
	engine := models.NewGatePassEngine(store, models.RolePermissionChecker{}, nil)
	_, err := engine.CreateGatePassFromStockEntry(ctx, req.StockEntry, req.EnqueuedBy)
	return err
}

// JobProcessor runs delivered gate pass jobs, one stock entry at a time.
type JobProcessor struct {
	DB     *gorm.DB
	Logger *logrus.Logger
	Lock   *redislock.Client
	Run    RunJob
}

func NewJobProcessor(db *gorm.DB, logger *logrus.Logger) *JobProcessor {
	return &JobProcessor{
		DB:     db,
		Logger: logger,
		Lock:   config.GetRedisLock(),
		Run:    CreateGatePassJob,
	}
}

func (p *JobProcessor) logger() *logrus.Logger {
	if p.Logger == nil {
		return config.GetLogger()
	}
	return p.Logger
}

// IsTerminal reports errors that a retry cannot fix.
func IsTerminal(err error) bool {
	var ve *models.ValidationError
	var pe *models.PermissionError
	return errors.As(err, &ve) || errors.As(err, &pe) || models.IsNotFound(err)
}

// Process runs a delivered message. Jobs with an outbox row are claimed first so that
// redeliveries of finished jobs are skipped.
func (p *JobProcessor) Process(ctx context.Context, msg config.GatePassJobMessage) (JobOutcome, error) {
	if msg.BusinessId == "" || msg.StockEntry == "" {
		return JobDead, fmt.Errorf("business_id/stock_entry required")
	}
	if msg.Kind != string(models.GatePassJobCreateFromStockEntry) {
		return JobDead, fmt.Errorf("unknown gate pass job kind %q", msg.Kind)
	}
	ctx = utils.SystemContext(ctx, msg.BusinessId, msg.EnqueuedBy)
	if msg.CorrelationId != "" {
		ctx = utils.SetCorrelationIdInContext(ctx, msg.CorrelationId)
	}

	var job *models.GatePassJob
	if msg.JobId > 0 {
		claimed, proceed, err := models.ClaimGatePassJob(ctx, p.DB, msg.JobId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return JobDead, err
			}
			return JobRetry, err
		}
		if !proceed {
			return JobSkipped, nil
		}
		job = claimed
	}

	req := models.GatePassJobRequest{
		Kind:       models.GatePassJobKind(msg.Kind),
		StockEntry: msg.StockEntry,
		EnqueuedBy: msg.EnqueuedBy,
	}
	runErr := p.runLocked(ctx, msg.BusinessId, req)

	if runErr == nil {
		if job != nil {
			if err := models.MarkGatePassJobSucceeded(ctx, p.DB, job.ID); err != nil {
				config.LogError(p.logger(), "gatePassJobs.go", "Process", "marking job succeeded", job.ID, err)
			}
		}
		return JobSucceeded, nil
	}

	terminal := IsTerminal(runErr)
	if job == nil {
		if terminal {
			return JobDead, runErr
		}
		return JobRetry, runErr
	}
	dead, err := models.MarkGatePassJobFailed(ctx, p.DB, job, runErr, terminal)
	if err != nil {
		config.LogError(p.logger(), "gatePassJobs.go", "Process", "marking job failed", job.ID, err)
	}
	if dead {
		return JobDead, runErr
	}
	return JobRetry, runErr
}

// runLocked holds a best-effort Redis lock and the MySQL advisory lock of the stock entry
// around one transaction.
func (p *JobProcessor) runLocked(ctx context.Context, businessId string, req models.GatePassJobRequest) error {
	fields := logrus.Fields{
		"field":       "JobProcessor",
		"business_id": businessId,
		"stock_entry": req.StockEntry,
	}
	if p.Lock == nil {
		p.logger().WithFields(fields).Warn("redis lock not ready; proceeding without redis lock")
	} else {
		lock, err := p.Lock.Obtain(ctx, "lock:"+req.StockEntry, 30*time.Second, nil)
		switch {
		case errors.Is(err, redislock.ErrNotObtained):
			p.logger().WithFields(fields).Warn("could not obtain redis lock; proceeding without redis lock")
		case err != nil:
			p.logger().WithFields(fields).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
		default:
			defer func() {
				if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil {
					p.logger().WithFields(fields).Warn("failed to release redis lock: " + releaseErr.Error())
				}
			}()
		}
	}

	return p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireStockEntryLock(tx, businessId, req.StockEntry); err != nil {
			return err
		}
		defer ReleaseStockEntryLock(tx, businessId, req.StockEntry)
		return p.Run(ctx, models.NewGormStoreInTx(tx), req)
	})
}

// InlineJobQueue runs jobs in-process after Enqueue returns, for deployments without Pub/Sub.
type InlineJobQueue struct {
	Processor *JobProcessor
}

func (q *InlineJobQueue) Enqueue(ctx context.Context, req models.GatePassJobRequest) error {
	if q.Processor == nil {
		return errors.New("inline job queue has no processor")
	}
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return utils.ErrorBusinessId
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	msg := config.GatePassJobMessage{
		BusinessId:    businessId,
		Kind:          string(req.Kind),
		StockEntry:    req.StockEntry,
		EnqueuedBy:    req.EnqueuedBy,
		CorrelationId: correlationId,
		EnqueuedAt:    time.Now().UTC(),
	}
	// the request ends before the job does
	jobCtx := context.WithoutCancel(ctx)
	go func() {
		outcome, err := q.Processor.Process(jobCtx, msg)
		if err != nil {
			q.Processor.logger().WithFields(logrus.Fields{
				"field":       "InlineJobQueue",
				"business_id": businessId,
				"stock_entry": req.StockEntry,
				"outcome":     outcome.String(),
			}).Error("inline gate pass job failed: " + err.Error())
		}
	}()
	return nil
}
