package utils

import (
	"context"

	"github.com/mmdatafocus/gate_entry/appctx"
)

// Alias the shared context key type so handlers and models use one vocabulary.
type contextKey = appctx.ContextKey

var (
	ContextKeyToken         = appctx.ContextKeyToken
	ContextKeyBusinessId    = appctx.ContextKeyBusinessId
	ContextKeyUsername      = appctx.ContextKeyUsername
	ContextKeyUserId        = appctx.ContextKeyUserId
	ContextKeyUserName      = appctx.ContextKeyUserName
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId

	ContextKeyIsAdmin           = appctx.ContextKeyIsAdmin
	ContextKeySkipTenantScope   = appctx.ContextKeySkipTenantScope
	ContextKeyIgnorePermissions = appctx.ContextKeyIgnorePermissions
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.Value[string](ctx, ContextKeyToken)
}

func GetBusinessIdFromContext(ctx context.Context) (string, bool) {
	return appctx.Value[string](ctx, ContextKeyBusinessId)
}

func GetUsernameFromContext(ctx context.Context) (string, bool) {
	return appctx.Value[string](ctx, ContextKeyUsername)
}

// GetUserNameFromContext returns the display name of the acting user.
func GetUserNameFromContext(ctx context.Context) (string, bool) {
	return appctx.Value[string](ctx, ContextKeyUserName)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.Value[string](ctx, ContextKeyCorrelationId)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetBusinessIdInContext(ctx context.Context, businessId string) context.Context {
	return appctx.Set(ctx, ContextKeyBusinessId, businessId)
}

func SetUsernameInContext(ctx context.Context, username string) context.Context {
	return appctx.Set(ctx, ContextKeyUsername, username)
}

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return appctx.Set(ctx, ContextKeyUserId, userId)
}

func SetUserNameInContext(ctx context.Context, userName string) context.Context {
	return appctx.Set(ctx, ContextKeyUserName, userName)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func GetIsAdminFromContext(ctx context.Context) (bool, bool) {
	return appctx.Value[bool](ctx, ContextKeyIsAdmin)
}

func SetIsAdminInContext(ctx context.Context, isAdmin bool) context.Context {
	return appctx.Set(ctx, ContextKeyIsAdmin, isAdmin)
}

func SetSkipTenantScopeInContext(ctx context.Context, skip bool) context.Context {
	return appctx.Set(ctx, ContextKeySkipTenantScope, skip)
}

func GetIgnorePermissionsFromContext(ctx context.Context) bool {
	return appctx.Flag(ctx, ContextKeyIgnorePermissions)
}

func SetIgnorePermissionsInContext(ctx context.Context, ignore bool) context.Context {
	return appctx.Set(ctx, ContextKeyIgnorePermissions, ignore)
}

// SystemContext derives a context for background work acting as the given user
// within a business. Tenant scoping stays on; permission checks are skipped.
func SystemContext(parent context.Context, businessId string, username string) context.Context {
	ctx := SetBusinessIdInContext(parent, businessId)
	if username == "" {
		username = "System"
	}
	ctx = SetUsernameInContext(ctx, username)
	ctx = SetUserNameInContext(ctx, username)
	ctx = SetUserIdInContext(ctx, 0)
	return SetIgnorePermissionsInContext(ctx, true)
}
