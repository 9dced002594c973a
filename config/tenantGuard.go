package config

import (
	"context"
	"strings"

	"github.com/mmdatafocus/gate_entry/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tenantColumn = "business_id"

// TenantGuardPlugin scopes query, row, update and delete statements to the request's
// business_id whenever the model carries that column.
//
// Raw SQL is not touched; report queries include business_id themselves.
// Internal jobs and admins opt out via appctx.ContextKeySkipTenantScope / ContextKeyIsAdmin.
type TenantGuardPlugin struct{}

func NewTenantGuardPlugin() *TenantGuardPlugin { return &TenantGuardPlugin{} }

func (p *TenantGuardPlugin) Name() string { return "tenant_guard" }

func (p *TenantGuardPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("tenant_guard:query", scopeToTenant); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("tenant_guard:row", scopeToTenant); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("tenant_guard:update", scopeToTenant); err != nil {
		return err
	}
	return cb.Delete().Before("gorm:delete").Register("tenant_guard:delete", scopeToTenant)
}

func scopeToTenant(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Context == nil {
		return
	}
	businessID, ok := tenantFor(db.Statement.Context)
	if !ok {
		return
	}
	if db.Statement.Schema == nil || db.Statement.Schema.LookUpField(tenantColumn) == nil {
		return
	}
	if whereMentionsTenant(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: tenantColumn},
				Value:  businessID,
			},
		},
	})
}

// tenantFor returns the business to scope to, or false when scoping is off for ctx.
func tenantFor(ctx context.Context) (string, bool) {
	if appctx.Flag(ctx, appctx.ContextKeySkipTenantScope) || appctx.Flag(ctx, appctx.ContextKeyIsAdmin) {
		return "", false
	}
	businessID, _ := appctx.Value[string](ctx, appctx.ContextKeyBusinessId)
	return businessID, businessID != ""
}

func whereMentionsTenant(c clause.Clause) bool {
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	return anyMentionsTenant(w.Exprs)
}

func anyMentionsTenant(exprs []clause.Expression) bool {
	for _, e := range exprs {
		if mentionsTenant(e) {
			return true
		}
	}
	return false
}

func mentionsTenant(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return isTenantColumn(v.Column)
	case clause.Neq:
		return isTenantColumn(v.Column)
	case clause.IN:
		return isTenantColumn(v.Column)
	case clause.AndConditions:
		return anyMentionsTenant(v.Exprs)
	case clause.OrConditions:
		return anyMentionsTenant(v.Exprs)
	case clause.Expr:
		return strings.Contains(strings.ToLower(v.SQL), tenantColumn)
	case clause.NamedExpr:
		return strings.Contains(strings.ToLower(v.SQL), tenantColumn)
	default:
		return false
	}
}

func isTenantColumn(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, tenantColumn)
	case clause.Column:
		return strings.EqualFold(c.Name, tenantColumn)
	default:
		return false
	}
}
