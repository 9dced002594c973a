package models

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PermissionChecker answers whether the caller in ctx may perform action on docType.
type PermissionChecker interface {
	HasPermission(ctx context.Context, docType string, action string) (bool, error)
}

// JobQueue accepts background gate pass jobs. Enqueue must not block on the job itself.
type JobQueue interface {
	Enqueue(ctx context.Context, job GatePassJobRequest) error
}

// GatePassEngine runs the gate pass lifecycle against a DocumentStore.
type GatePassEngine struct {
	Store       DocumentStore
	Permissions PermissionChecker
	Jobs        JobQueue
	Logger      *logrus.Logger
	Now         func() time.Time

	tracer trace.Tracer
}

func NewGatePassEngine(store DocumentStore, permissions PermissionChecker, jobs JobQueue) *GatePassEngine {
	return &GatePassEngine{
		Store:       store,
		Permissions: permissions,
		Jobs:        jobs,
		Logger:      config.GetLogger(),
		Now:         time.Now,
		tracer:      otel.Tracer("gate_entry/models"),
	}
}

func (e *GatePassEngine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *GatePassEngine) logger() *logrus.Logger {
	if e.Logger == nil {
		return config.GetLogger()
	}
	return e.Logger
}

func (e *GatePassEngine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if e.tracer == nil {
		e.tracer = otel.Tracer("gate_entry/models")
	}
	return e.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// requirePermission fails with msg unless the caller may act on docType. Contexts marked
// with utils.SetIgnorePermissionsInContext skip the check, as does an engine without a checker.
func (e *GatePassEngine) requirePermission(ctx context.Context, docType string, action string, msg string) error {
	if utils.GetIgnorePermissionsFromContext(ctx) || e.Permissions == nil {
		return nil
	}
	ok, err := e.Permissions.HasPermission(ctx, docType, action)
	if err != nil {
		return err
	}
	if !ok {
		return &PermissionError{Message: msg}
	}
	return nil
}

func (e *GatePassEngine) requireGatePass(ctx context.Context, action string) error {
	return e.requirePermission(ctx, DocTypeGatePass, action, fmt.Sprintf(msgNoPermissionGatePass, action))
}

func (e *GatePassEngine) requireReference(ctx context.Context, ref DocumentReference) error {
	return e.requirePermission(ctx, string(ref), ActionRead, fmt.Sprintf(msgNoPermissionAccess, ref))
}

func (e *GatePassEngine) Get(ctx context.Context, name string) (*GatePass, error) {
	if err := e.requireGatePass(ctx, ActionRead); err != nil {
		return nil, err
	}
	return e.Store.GetGatePass(ctx, name)
}

func (e *GatePassEngine) List(ctx context.Context, filter GatePassFilter) ([]*GatePass, error) {
	if err := e.requireGatePass(ctx, ActionRead); err != nil {
		return nil, err
	}
	return e.Store.FindGatePasses(ctx, filter)
}

// Save inserts a new draft (empty Name) or updates an existing draft.
func (e *GatePassEngine) Save(ctx context.Context, gp *GatePass) (*GatePass, error) {
	ctx, span := e.startSpan(ctx, "GatePassEngine.Save", attribute.String("gate_pass", gp.Name))
	defer span.End()

	isNew := gp.Name == ""
	action := ActionWrite
	if isNew {
		action = ActionCreate
	}
	if err := e.requireGatePass(ctx, action); err != nil {
		return nil, err
	}

	var saved *GatePass
	err := e.Store.Transaction(ctx, func(ctx context.Context, tx DocumentStore) error {
		doc := gp.Clone()
		if isNew {
			doc.ID = 0
			doc.DocStatus = DocStatusDraft
			doc.PurchaseReceipt = ""
			doc.SubcontractingReceipt = ""
		} else {
			stored, err := tx.GetGatePass(ctx, gp.Name)
			if err != nil {
				return err
			}
			if stored.DocStatus != DocStatusDraft {
				return validationErrorf(msgCannotEditSubmitted, stored.Name)
			}
			carryStoredFields(doc, stored)
		}

		run := newGatePassRun(e, tx, doc)
		if err := run.saveHooks(ctx); err != nil {
			return err
		}

		if isNew {
			name, err := tx.NextName(ctx, gatePassSeries(e.now()))
			if err != nil {
				return err
			}
			doc.Name = name
			doc.Owner, _ = utils.GetUsernameFromContext(ctx)
			if err := tx.InsertGatePass(ctx, doc); err != nil {
				return err
			}
		} else if err := tx.UpdateGatePass(ctx, doc); err != nil {
			return err
		}
		saved = doc
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return saved, nil
}

// carryStoredFields keeps the identity and the fields only the engine writes.
func carryStoredFields(doc *GatePass, stored *GatePass) {
	doc.ID = stored.ID
	doc.BusinessId = stored.BusinessId
	doc.DocStatus = stored.DocStatus
	doc.Owner = stored.Owner
	doc.CreatedAt = stored.CreatedAt
	doc.PurchaseReceipt = stored.PurchaseReceipt
	doc.SubcontractingReceipt = stored.SubcontractingReceipt
	doc.VehiclePhoto = stored.VehiclePhoto
}

func (e *GatePassEngine) Submit(ctx context.Context, name string) (*GatePass, error) {
	ctx, span := e.startSpan(ctx, "GatePassEngine.Submit", attribute.String("gate_pass", name))
	defer span.End()

	if err := e.requireGatePass(ctx, ActionSubmit); err != nil {
		return nil, err
	}

	var submitted *GatePass
	err := e.Store.Transaction(ctx, func(ctx context.Context, tx DocumentStore) error {
		doc, err := tx.GetGatePass(ctx, name)
		if err != nil {
			return err
		}
		switch doc.DocStatus {
		case DocStatusSubmitted:
			return validationErrorf(msgAlreadySubmitted, doc.Name)
		case DocStatusCancelled:
			return validationErrorf(msgCannotSubmitCancelled, doc.Name)
		}

		run := newGatePassRun(e, tx, doc)
		if err := run.saveHooks(ctx); err != nil {
			return err
		}
		if err := run.beforeSubmit(); err != nil {
			return err
		}
		doc.DocStatus = DocStatusSubmitted
		if err := tx.UpdateGatePass(ctx, doc); err != nil {
			return err
		}
		if err := run.onSubmit(ctx); err != nil {
			return err
		}
		submitted = doc
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return submitted, nil
}

func (e *GatePassEngine) Cancel(ctx context.Context, name string) (*GatePass, error) {
	ctx, span := e.startSpan(ctx, "GatePassEngine.Cancel", attribute.String("gate_pass", name))
	defer span.End()

	if err := e.requireGatePass(ctx, ActionCancel); err != nil {
		return nil, err
	}

	var cancelled *GatePass
	err := e.Store.Transaction(ctx, func(ctx context.Context, tx DocumentStore) error {
		doc, err := tx.GetGatePass(ctx, name)
		if err != nil {
			return err
		}
		if doc.DocStatus != DocStatusSubmitted {
			return validationErrorf(msgOnlySubmittedCancelled)
		}

		run := newGatePassRun(e, tx, doc)
		if err := run.beforeCancel(ctx); err != nil {
			return err
		}
		upd := GatePassFieldUpdate{DocStatus: ptr(DocStatusCancelled)}
		if err := tx.AdminUpdateGatePass(ctx, doc.Name, upd); err != nil {
			return err
		}
		upd.ApplyTo(doc)
		if err := run.onCancel(ctx); err != nil {
			return err
		}
		cancelled = doc
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return cancelled, nil
}

// Delete removes a draft or cancelled pass.
func (e *GatePassEngine) Delete(ctx context.Context, name string) error {
	ctx, span := e.startSpan(ctx, "GatePassEngine.Delete", attribute.String("gate_pass", name))
	defer span.End()

	if err := e.requireGatePass(ctx, ActionDelete); err != nil {
		return err
	}
	return e.Store.Transaction(ctx, func(ctx context.Context, tx DocumentStore) error {
		doc, err := tx.GetGatePass(ctx, name)
		if err != nil {
			return err
		}
		if doc.DocStatus == DocStatusSubmitted {
			return validationErrorf(msgCannotDeleteSubmitted, doc.Name)
		}
		return tx.DeleteGatePass(ctx, doc.Name)
	})
}

// SetVehiclePhoto records the object key of an uploaded vehicle photo. It is allowed at any
// docstatus because the photo is evidence, not part of the movement.
func (e *GatePassEngine) SetVehiclePhoto(ctx context.Context, name string, objectKey string) (*GatePass, error) {
	if err := e.requireGatePass(ctx, ActionWrite); err != nil {
		return nil, err
	}
	var doc *GatePass
	err := e.Store.Transaction(ctx, func(ctx context.Context, tx DocumentStore) error {
		var err error
		doc, err = tx.GetGatePass(ctx, name)
		if err != nil {
			return err
		}
		upd := GatePassFieldUpdate{VehiclePhoto: ptr(objectKey)}
		if err := tx.AdminUpdateGatePass(ctx, doc.Name, upd); err != nil {
			return err
		}
		upd.ApplyTo(doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// logBestEffort records a cleanup failure that must not abort the caller.
func (e *GatePassEngine) logBestEffort(funcName string, data any, err error) {
	config.LogError(e.logger(), "GatePassEngine", funcName, "best effort", data, err)
}
