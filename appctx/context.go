package appctx

import "context"

// ContextKey types the request values shared by config, utils and the handlers.
type ContextKey string

func (c ContextKey) String() string { return "gate_entry:" + string(c) }

// Keys set by the session middleware for every authenticated request.
var (
	ContextKeyToken         = ContextKey("Token")
	ContextKeyBusinessId    = ContextKey("BusinessId")
	ContextKeyUsername      = ContextKey("Username")
	ContextKeyUserId        = ContextKey("UserId")
	ContextKeyUserName      = ContextKey("UserName")
	ContextKeyCorrelationId = ContextKey("CorrelationId")
)

// Keys that relax the guards.
var (
	// platform admins; the tenant guard leaves their queries unscoped
	ContextKeyIsAdmin = ContextKey("IsAdmin")
	// cross-tenant maintenance such as the job dispatcher's claim query
	ContextKeySkipTenantScope = ContextKey("SkipTenantScope")
	// ERP hooks and async jobs act as the system and bypass role checks
	ContextKeyIgnorePermissions = ContextKey("IgnorePermissions")
)

// Value returns the value stored under key when it has type T.
func Value[T any](ctx context.Context, key ContextKey) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// Flag reports whether a boolean key is set to true.
func Flag(ctx context.Context, key ContextKey) bool {
	v, _ := Value[bool](ctx, key)
	return v
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
