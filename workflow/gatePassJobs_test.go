package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/models"
	"github.com/mmdatafocus/gate_entry/utils"
)

func TestPublishBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 5 * time.Second},
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{4, 40 * time.Second},
		{7, 320 * time.Second},
		{8, 10 * time.Minute},
		{50, 10 * time.Minute},
	}
	for _, tc := range cases {
		if got := PublishBackoff(5*time.Second, tc.attempt); got != tc.want {
			t.Errorf("PublishBackoff(5s, %d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestPublishBackoffCapsAtTenMinutes(t *testing.T) {
	if got := PublishBackoff(time.Minute, 20); got != maxPublishBackoff {
		t.Fatalf("backoff = %v", got)
	}
}

func TestJobOutcomeAck(t *testing.T) {
	for _, o := range []JobOutcome{JobSucceeded, JobSkipped, JobDead} {
		if !o.Ack() {
			t.Errorf("%s should be acknowledged", o)
		}
	}
	if JobRetry.Ack() {
		t.Errorf("retry must not be acknowledged")
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(fmt.Errorf("wrapped: %w", &models.ValidationError{Message: "Received quantity must be positive"})) {
		t.Errorf("validation errors are terminal")
	}
	if !IsTerminal(&models.NotFoundError{DocType: "Stock Entry", Name: "SE-1"}) {
		t.Errorf("missing documents are terminal")
	}
	if IsTerminal(errors.New("connection reset")) {
		t.Errorf("transient errors are retried")
	}
}

func TestProcessRejectsMalformedMessages(t *testing.T) {
	p := &JobProcessor{}
	outcome, err := p.Process(context.Background(), config.GatePassJobMessage{Kind: string(models.GatePassJobCreateFromStockEntry)})
	if err == nil || outcome != JobDead {
		t.Errorf("missing business: outcome %s, err %v", outcome, err)
	}
	outcome, err = p.Process(context.Background(), config.GatePassJobMessage{BusinessId: "biz", StockEntry: "SE-1", Kind: "rebuild"})
	if err == nil || outcome != JobDead {
		t.Errorf("unknown kind: outcome %s, err %v", outcome, err)
	}
}

func TestInlineQueueNeedsBusiness(t *testing.T) {
	q := &InlineJobQueue{Processor: &JobProcessor{}}
	err := q.Enqueue(context.Background(), models.GatePassJobRequest{Kind: models.GatePassJobCreateFromStockEntry, StockEntry: "SE-1"})
	if !errors.Is(err, utils.ErrorBusinessId) {
		t.Fatalf("err = %v", err)
	}
}

func TestStockEntryLockName(t *testing.T) {
	if got := stockEntryLockName("biz-1", "MAT-STE-2026-00001"); got != "gate_pass:biz-1:MAT-STE-2026-00001" {
		t.Errorf("lock name = %q", got)
	}
}
