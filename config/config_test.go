package config

import (
	"context"
	"testing"
	"time"

	"github.com/mmdatafocus/gate_entry/appctx"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"
)

func TestLogLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	if got := logLevelFromEnv(); got != logrus.ErrorLevel {
		t.Fatalf("default level: got %v", got)
	}
	t.Setenv("LOG_LEVEL", "info")
	if got := logLevelFromEnv(); got != logrus.InfoLevel {
		t.Fatalf("info level: got %v", got)
	}
	t.Setenv("LOG_LEVEL", "chatty")
	if got := logLevelFromEnv(); got != logrus.ErrorLevel {
		t.Fatalf("unknown level must fall back to error, got %v", got)
	}
}

func TestFeatureFlags(t *testing.T) {
	t.Setenv("GATE_PASS_AUTO_CREATE", "")
	if !GateAutoCreateEnabled() {
		t.Fatalf("auto create must default on")
	}
	t.Setenv("GATE_PASS_AUTO_CREATE", "false")
	if GateAutoCreateEnabled() {
		t.Fatalf("auto create must honour false")
	}
	t.Setenv("GATE_PASS_JOBS_INLINE", "Yes")
	if !GateJobsInline() {
		t.Fatalf("inline jobs must accept yes")
	}
}

func TestRetryDelayCapped(t *testing.T) {
	if got := retryDelay(1); got != 2*time.Second {
		t.Fatalf("attempt 1: got %s", got)
	}
	if got := retryDelay(4); got != 16*time.Second {
		t.Fatalf("attempt 4: got %s", got)
	}
	if got := retryDelay(12); got != 30*time.Second {
		t.Fatalf("attempt 12 must cap at 30s, got %s", got)
	}
}

func TestDSNUsesUnixSocketForCloudSQL(t *testing.T) {
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_PASSWORD", "p")
	t.Setenv("DB_NAME", "gate")
	t.Setenv("DB_HOST", "/cloudsql/proj:region:inst")
	t.Setenv("DB_PORT", "3306")
	want := "u:p@unix(/cloudsql/proj:region:inst)/gate?multiStatements=true&parseTime=true&loc=UTC"
	if got := DSN(); got != want {
		t.Fatalf("got %q", got)
	}
	t.Setenv("DB_HOST", "127.0.0.1")
	want = "u:p@tcp(127.0.0.1:3306)/gate?multiStatements=true&parseTime=true&loc=UTC"
	if got := DSN(); got != want {
		t.Fatalf("got %q", got)
	}
}

func TestTenantFor(t *testing.T) {
	ctx := appctx.Set(context.Background(), appctx.ContextKeyBusinessId, "biz-1")
	if biz, ok := tenantFor(ctx); !ok || biz != "biz-1" {
		t.Fatalf("expected biz-1 scope, got %q %v", biz, ok)
	}
	if _, ok := tenantFor(appctx.Set(ctx, appctx.ContextKeySkipTenantScope, true)); ok {
		t.Fatalf("skip flag must disable scoping")
	}
	if _, ok := tenantFor(appctx.Set(ctx, appctx.ContextKeyIsAdmin, true)); ok {
		t.Fatalf("admin flag must disable scoping")
	}
	if _, ok := tenantFor(context.Background()); ok {
		t.Fatalf("no business id means no scoping")
	}
}

func TestWhereMentionsTenant(t *testing.T) {
	explicit := clause.Clause{Expression: clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.Column{Name: "docstatus"}, Value: 1},
		clause.OrConditions{Exprs: []clause.Expression{
			clause.Eq{Column: "business_id", Value: "biz"},
		}},
	}}}
	if !whereMentionsTenant(explicit) {
		t.Fatalf("nested business_id filter must be detected")
	}

	raw := clause.Clause{Expression: clause.Where{Exprs: []clause.Expression{
		clause.Expr{SQL: "gp.business_id = ? AND gp.docstatus < 2"},
	}}}
	if !whereMentionsTenant(raw) {
		t.Fatalf("raw business_id filter must be detected")
	}

	other := clause.Clause{Expression: clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.Column{Name: "name"}, Value: "GP-1"},
	}}}
	if whereMentionsTenant(other) {
		t.Fatalf("unrelated filter must not count as tenant filter")
	}
	if whereMentionsTenant(clause.Clause{}) {
		t.Fatalf("empty where must not count")
	}
}
